package maps

import (
	"text2phenotype.com/fsl/utils"
	"fmt"
	"reflect"
)

// eachTaggedField walks the json-tagged fields of the struct behind
// structPtr. Untagged fields, the embedded BaseDocument included, are
// skipped.
func eachTaggedField(structPtr interface{}, visit func(key string, field reflect.Value, name string) error) error {
	value := reflect.ValueOf(structPtr)
	if value.Kind() != reflect.Ptr {
		return fmt.Errorf("%v is not a pointer", structPtr)
	}
	value = value.Elem()
	if value.Kind() != reflect.Struct {
		return fmt.Errorf("%v is not a struct pointer", structPtr)
	}
	valueType := value.Type()
	for i := 0; i < value.NumField(); i++ {
		fieldInfo := valueType.Field(i)
		key, tagged := fieldInfo.Tag.Lookup("json")
		if !tagged {
			continue
		}
		if err := visit(key, value.Field(i), fieldInfo.Name); err != nil {
			return err
		}
	}
	return nil
}

// fillStruct copies values from the raw object into the struct's tagged
// fields. Keys the struct does not declare are left alone.
func fillStruct(raw *map[string]interface{}, structPtr interface{}) error {
	return eachTaggedField(structPtr, func(key string, field reflect.Value, name string) error {
		contents, present := (*raw)[key]
		if !present {
			return nil
		}
		if err := assign(&contents, field); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		return nil
	})
}

func assign(raw *interface{}, target reflect.Value) error {
	switch target.Kind() {
	case reflect.Struct:
		innerMap, ok := (*raw).(map[string]interface{})
		if !ok {
			return nil
		}
		return fillStruct(&innerMap, structRefOf(target).pointer())
	case reflect.Slice:
		return assignSlice(raw, target)
	case reflect.Map:
		return assignMap(raw, target)
	case reflect.Ptr:
		if *raw == nil {
			return nil
		}
		ref := ptrRefOf(target)
		ref.allocate()
		return assign(raw, ref.pointed())
	default:
		// primitives end up here
		return assignPrimitive(raw, target)
	}
}

func assignPrimitive(raw *interface{}, target reflect.Value) (err error) {
	defer utils.RecoverWithError(&err)
	if raw == nil || *raw == nil {
		return nil
	}
	target.Set(reflect.ValueOf(*raw).Convert(target.Type()))
	return nil
}

func assignSlice(raw *interface{}, target reflect.Value) error {
	items, ok := (*raw).([]interface{})
	if !ok {
		return fmt.Errorf("expected slice, got %v type", reflect.TypeOf(*raw))
	}
	itemType := target.Type().Elem()
	filled := make([]reflect.Value, len(items))
	for index := range items {
		item := items[index]
		itemValue := reflect.New(itemType).Elem()
		if err := assign(&item, itemValue); err != nil {
			return err
		}
		filled[index] = itemValue
	}
	target.Set(reflect.Append(target, filled...))
	return nil
}

func assignMap(raw *interface{}, target reflect.Value) error {
	items, ok := (*raw).(map[string]interface{})
	if !ok {
		return fmt.Errorf("expected map, got %v type", reflect.TypeOf(*raw))
	}
	// target is a nil map at this point, reflect.MakeMap gives us a real one
	filled := reflect.MakeMap(target.Type())
	itemType := target.Type().Elem()
	for key := range items {
		item := items[key]
		itemValue := reflect.New(itemType).Elem()
		if err := assign(&item, itemValue); err != nil {
			return err
		}
		filled.SetMapIndex(reflect.ValueOf(key), itemValue)
	}
	target.Set(filled)
	return nil
}

// dumpStruct writes the struct's tagged fields into the raw object. Keys the
// struct does not declare are left alone, so foreign workers' entries
// survive the round trip.
func dumpStruct(raw *map[string]interface{}, structPtr interface{}) error {
	return eachTaggedField(structPtr, func(key string, field reflect.Value, name string) error {
		current := (*raw)[key]
		rendered, err := render(&current, &field)
		if err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
		if rendered == nil {
			(*raw)[key] = nil
			return nil
		}
		(*raw)[key] = *rendered
		return nil
	})
}

func render(current *interface{}, v *reflect.Value) (*interface{}, error) {
	value := *v
	switch value.Kind() {
	case reflect.Struct:
		ref := structRefOf(value)
		return renderStruct(current, &ref)
	case reflect.Ptr:
		ref := ptrRefOf(value)
		if ref.IsNil() {
			return nil, nil
		}
		pointed := ref.pointed()
		return render(current, &pointed)
	case reflect.Slice:
		items, err := renderSlice(value)
		if err != nil {
			return nil, err
		}
		result := interface{}(*items)
		return &result, nil
	case reflect.Map:
		items, err := renderMap(value)
		if err != nil {
			return nil, err
		}
		result := interface{}(*items)
		return &result, nil
	default:
		// primitives end up here
		result := value.Interface()
		return &result, nil
	}
}

// renderStruct merges the struct into the map already stored under the key,
// creating one when there is none yet.
func renderStruct(current *interface{}, ref *structRef) (*interface{}, error) {
	var innerMap map[string]interface{}
	if current == nil || *current == nil {
		innerMap = map[string]interface{}{}
	} else {
		m, ok := (*current).(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("expected nested value to be a map, got %v", reflect.TypeOf(*current))
		}
		innerMap = m
	}
	if err := dumpStruct(&innerMap, ref.pointer()); err != nil {
		return nil, err
	}
	result := interface{}(innerMap)
	return &result, nil
}

func renderSlice(value reflect.Value) (*[]interface{}, error) {
	items := make([]interface{}, value.Len())
	for index := 0; index < value.Len(); index++ {
		itemValue := value.Index(index)
		rendered, err := render(nil, &itemValue)
		if err != nil {
			return nil, err
		}
		if rendered == nil {
			continue
		}
		items[index] = *rendered
	}
	return &items, nil
}

func renderMap(value reflect.Value) (*map[string]interface{}, error) {
	items := map[string]interface{}{}
	iter := value.MapRange()
	for iter.Next() {
		key := iter.Key().String()
		// values coming out of MapRange are not addressable even for struct
		// kinds, so route them through an interface copy first
		item := iter.Value().Interface()
		itemValue := reflect.ValueOf(&item).Elem()
		rendered, err := render(nil, &itemValue)
		if err != nil {
			return nil, err
		}
		if rendered == nil {
			items[key] = nil
			continue
		}
		items[key] = *rendered
	}
	return &items, nil
}
