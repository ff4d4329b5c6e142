package config

type DB struct {
	DBType string `default:"sqlite" desc:"database driver"`
	DSN    string `desc:"database data source name"`
}
