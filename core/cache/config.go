package cache

// Config holds configuration for the dimension id cache.
type Config struct {
	// Driver selects the backend: memory, redis or none.
	Driver string `mapstructure:"driver" default:"memory"`
	// Host is the redis host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the redis port.
	Port int `mapstructure:"port" default:"6379"`
	// Password is the redis password.
	Password string `mapstructure:"password" default:""`
	// DB is the redis logical database.
	DB int `mapstructure:"db" default:"0"`
	// TTLSeconds bounds how long an id stays cached.
	TTLSeconds int `mapstructure:"ttl_seconds" default:"3600"`
	// Prefix namespaces redis keys.
	Prefix string `mapstructure:"prefix" default:"catalog"`
}
