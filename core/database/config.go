package database

// Config holds configuration for the Document Store connection.
type Config struct {
	// Driver selects the backend (mysql, sqlite, mongo).
	Driver string `mapstructure:"driver" default:"sqlite"`
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name, or the file path for sqlite.
	Name string `mapstructure:"name" default:"collection.db"`
	// URI is the mongo connection string.
	URI string `mapstructure:"uri" default:"mongodb://localhost:27017"`
	// TablePrefix is prepended to every per-kind table or collection.
	TablePrefix string `mapstructure:"table_prefix" default:""`
	// TimeoutSeconds bounds connection setup and I/O.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
