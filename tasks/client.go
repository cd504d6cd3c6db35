package tasks

import (
	"text2phenotype.com/fsl/redis"
	"fmt"
)

// Client bundles the task stores FSL touches, one redis DB each.
type Client struct {
	Documents DocumentTasks
	Chunks    ChunkTasks
	Jobs      JobTasks
}

// NewClient is a preferred way for working with TaskInfos
func NewClient() (Client, error) {
	var client Client
	connections := []struct {
		db    redis.DB
		store *redis.Client
	}{
		{DocumentsDB, &client.Documents.store},
		{JobsDB, &client.Jobs.store},
		{ChunksDB, &client.Chunks.store},
	}
	for _, conn := range connections {
		redisClient, err := redis.NewClient(conn.db)
		if err != nil {
			return Client{}, err
		}
		*conn.store = redisClient
	}
	return client, nil
}

func (client *Client) Close() {
	_ = client.Chunks.store.Close()
	_ = client.Documents.store.Close()
	_ = client.Jobs.store.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
