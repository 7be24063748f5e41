package redis

import "fmt"

// Key naming conventions, grounded on the teacher's store/redis/keys.go.
// All keys are prefixed with "queue:" to avoid collisions in a shared
// Redis instance.

const keyPrefix = "queue:"

// kvKey returns the key for a KV family/key pair: queue:kv:{family}:{key}
func kvKey(family, key string) string {
	return fmt.Sprintf("%skv:%s:%s", keyPrefix, family, key)
}

// dumpKey returns the key holding a queue's serialized dynamic-member dump.
func dumpKey(queue string) string { return keyPrefix + "dump:" + queue }

// statsKey returns the Hash key holding a queue's persisted stat counters.
func statsKey(queue string) string { return keyPrefix + "stats:" + queue }
