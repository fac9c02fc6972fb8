package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// configCache stores one parsed instance per configuration type so each
// struct is only read from the environment once per process.
type configCache struct {
	mu     sync.RWMutex
	values map[string]any
}

var (
	globalCache = &configCache{
		values: make(map[string]any),
	}

	defaultEnvLoaded sync.Once
)

// Load loads environment variables into the provided configuration struct.
// The default .env file is loaded once per process before the first parse;
// a missing .env file is not an error. Once a configuration type is parsed
// successfully, subsequent calls for the same type return the cached value.
//
// Example:
//
//	type MailerConfig struct {
//		ServerToken string `env:"POSTMARK_SERVER_TOKEN,required"`
//		SenderEmail string `env:"SENDER_EMAIL,required"`
//	}
//
//	var cfg MailerConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	typeName := getTypeName[T]()

	globalCache.mu.RLock()
	if cached, ok := globalCache.values[typeName]; ok {
		*v = cached.(T)
		globalCache.mu.RUnlock()
		return nil
	}
	globalCache.mu.RUnlock()

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	globalCache.mu.Lock()
	// Another goroutine may have parsed the same type concurrently; the
	// first stored copy wins so every caller observes identical values.
	if cached, ok := globalCache.values[typeName]; ok {
		*v = cached.(T)
	} else {
		globalCache.values[typeName] = *v
	}
	globalCache.mu.Unlock()

	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
// Useful for configurations required for the application to start.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("Failed to load required configuration: %v", err))
	}
}

// getTypeName returns a string identifier for the generic type T.
func getTypeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}
