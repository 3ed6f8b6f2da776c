//go:generate go run github.com/abice/go-enum --file=$GOFILE --names --nocase

package config

// AppEnv represents the application environment
// ENUM(local,production,development,testing)
type AppEnv string

// StorageDriver selects where subscribers are persisted
// ENUM(file,postgres)
type StorageDriver string

// HorizonBackend selects how already-delivered news URLs are remembered
// ENUM(memory,ttl,redis)
type HorizonBackend string
