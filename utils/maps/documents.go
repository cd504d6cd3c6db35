package maps

import (
	"text2phenotype.com/fsl/utils"
	"encoding/json"
	"reflect"
)

// PartialDocument is a struct view over a raw JSON object. Keys the struct
// does not declare survive a read-update-write round trip untouched.
type PartialDocument interface {
	raw() *map[string]interface{}
	replaceRaw(*map[string]interface{})
	MarshalJSON() ([]byte, error)
}

type BaseDocument struct {
	rawMap *map[string]interface{}
}

func (doc *BaseDocument) raw() *map[string]interface{} {
	return doc.rawMap
}

func (doc *BaseDocument) replaceRaw(m *map[string]interface{}) {
	doc.rawMap = m
}

// MarshalJSON writes the raw object, not the struct fields.
func (doc *BaseDocument) MarshalJSON() ([]byte, error) {
	return json.Marshal(doc.rawMap)
}

func FillFromMap(doc PartialDocument, from *map[string]interface{}) error {
	if err := fillStruct(from, doc); err != nil {
		return err
	}
	doc.replaceRaw(from)
	return nil
}

// CopyValues fills to with the fields both documents declare and rebuilds
// to's raw object from scratch.
func CopyValues(from PartialDocument, to PartialDocument) error {
	if err := fillStruct(from.raw(), to); err != nil {
		return err
	}
	rebuilt := map[string]interface{}{}
	if err := dumpStruct(&rebuilt, to); err != nil {
		return err
	}
	to.replaceRaw(&rebuilt)
	return nil
}

func ApplyUpdates(doc PartialDocument, updateFunc interface{}) (err error) {
	if updateFunc == nil {
		return nil
	}
	defer utils.RecoverWithError(&err)
	reflect.ValueOf(updateFunc).Call([]reflect.Value{reflect.ValueOf(doc)})
	return dumpStruct(doc.raw(), doc)
}
