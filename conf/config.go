package conf

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

var (
	Path string
	Port int
)

func LoadEnv(cli *cli.Context) error {
	path := cli.String("path")
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		path = homeDir + "/.flarex/useradmin"
	}

	// Variables already set in the environment take precedence.
	if err := godotenv.Load(path + "/.env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	Path = path
	Port = cli.Int("port")
	return nil
}

func LoadConfig() (*Config, error) {
	f, err := os.Open(Path + "/config.yaml")
	if err != nil {
		f, err = os.Open(Path + "/config.example.yaml")
		if err != nil {
			return nil, err
		}
	}
	defer f.Close()

	r := NewEnvExpandedReader(f)

	var cfg *Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

type Config struct {
	Name        string      `yaml:"name"`
	Log         Log         `yaml:"log"`
	Persistence Persistence `yaml:"persistence"`
	NATS        NATS        `yaml:"nats"`
	CORS        CORS        `yaml:"cors"`
}

type Log struct {
	Env   string `yaml:"env"`   // development | production
	Level string `yaml:"level"` // debug | info | warn | error
}

func (l Log) Production() bool {
	return strings.EqualFold(l.Env, "production") || strings.EqualFold(l.Env, "prod")
}

type PersistenceDriver int

const (
	SQLite PersistenceDriver = iota
	BadgerDB
	InMem
	Postgres
	Redis
	Mongo
)

func ParsePersistenceDriver(driver string) (PersistenceDriver, error) {
	switch strings.ToLower(driver) {
	case "sqlite":
		return SQLite, nil
	case "badger":
		return BadgerDB, nil
	case "inmem":
		return InMem, nil
	case "postgres", "pg":
		return Postgres, nil
	case "redis":
		return Redis, nil
	case "mongo", "mongodb":
		return Mongo, nil
	default:
		return -1, errors.New("driver not supported")
	}
}

func (driver PersistenceDriver) String() string {
	switch driver {
	case SQLite:
		return "sqlite"
	case BadgerDB:
		return "badger"
	case InMem:
		return "inmem"
	case Postgres:
		return "postgres"
	case Redis:
		return "redis"
	case Mongo:
		return "mongo"
	default:
		return "unknown"
	}
}

type Persistence struct {
	Driver   PersistenceDriver
	Name     string
	Host     string
	Port     int
	Username string
	Password string
	URI      string
	InMem    bool
}

func (p *Persistence) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Driver   string `yaml:"driver"`
		Name     string `yaml:"name"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		URI      string `yaml:"uri"`
		InMem    bool   `yaml:"inmem"`
	}

	if err := value.Decode(&raw); err != nil {
		return err
	}

	driver, err := ParsePersistenceDriver(raw.Driver)
	if err != nil {
		return err
	}

	p.Driver = driver
	p.Name = raw.Name

	p.Host = raw.Host
	if raw.Host == "" {
		switch driver {
		case SQLite, BadgerDB:
			p.Host = Path
		default:
			p.Host = "localhost"
		}
	}

	p.Port = raw.Port
	p.Username = raw.Username
	p.Password = raw.Password
	p.URI = raw.URI
	p.InMem = raw.InMem

	return nil
}

type NATS struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Creds   string `yaml:"creds"`
}

type CORS struct {
	Origins []string `yaml:"origins"`
}
