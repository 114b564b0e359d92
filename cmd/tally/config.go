package main

import (
	"os"
	"strings"

	"go.dedis.ch/tally/cli"
	"go.dedis.ch/tally/contracts/vote"
	"go.dedis.ch/tally/core/access"
	"go.dedis.ch/tally/core/store/kv"
	"go.dedis.ch/tally/serde"
	"go.dedis.ch/tally/serde/json"
	"go.dedis.ch/tally/serde/msgpack"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"
)

const (
	configFlag  = "config"
	dbFlag      = "db"
	modeFlag    = "mode"
	adminFlag   = "admin"
	formatFlag  = "format"
	engineFlag  = "engine"
	metricsFlag = "metrics"
	genesisFlag = "genesis"
)

// envPrefix is the prefix of the environment variables that can set the
// global flags.
const envPrefix = "TALLY_"

// config is the configuration of the application. The values are, from the
// lowest to the highest priority, the defaults, the YAML file, the environment
// and the flags.
type config struct {
	Mode          string `yaml:"mode"`
	Admin         string `yaml:"admin"`
	Format        string `yaml:"format"`
	Engine        string `yaml:"engine"`
	DB            string `yaml:"db"`
	GenesisHeight uint64 `yaml:"genesis_height"`
	Metrics       string `yaml:"metrics"`
}

func defaultConfig() config {
	return config{
		Mode:   string(vote.ModeSingle),
		Admin:  string(vote.DefaultAdmin),
		Format: string(serde.FormatJSON),
		Engine: string(kv.EngineBolt),
		DB:     "tally.db",
	}
}

// globalFlags returns the flags available to every command.
func globalFlags() []cli.Flag {
	flag := func(name, usage string) cli.StringFlag {
		return cli.StringFlag{
			Name:    name,
			Usage:   usage,
			EnvVars: []string{envName(name)},
		}
	}

	return []cli.Flag{
		flag(configFlag, "path to a YAML configuration file"),
		flag(dbFlag, "path to the database"),
		flag(modeFlag, "layout of the contract, 'single' or 'multi'"),
		flag(adminFlag, "owner of the tally in single mode"),
		flag(formatFlag, "serialization format, 'JSON' or 'MSGPACK'"),
		flag(engineFlag, "database engine, 'bbolt' or 'leveldb'"),
		flag(metricsFlag, "file where the Prometheus metrics are written after the command"),
		cli.Uint64Flag{
			Name:    genesisFlag,
			Usage:   "height of the block before the first transaction of a new database",
			EnvVars: []string{envName(genesisFlag)},
		},
	}
}

func envName(flag string) string {
	return envPrefix + strings.ToUpper(flag)
}

// loadConfig returns the configuration built from the flags and the file they
// point to.
func loadConfig(flags cli.Flags) (config, error) {
	cfg := defaultConfig()

	path := flags.String(configFlag)
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, xerrors.Errorf("failed to read config file: %v", err)
		}

		err = yaml.UnmarshalStrict(data, &cfg)
		if err != nil {
			return cfg, xerrors.Errorf("failed to unmarshal config: %v", err)
		}
	}

	override := func(field *string, name string) {
		value := flags.String(name)
		if value != "" {
			*field = value
		}
	}

	override(&cfg.DB, dbFlag)
	override(&cfg.Mode, modeFlag)
	override(&cfg.Admin, adminFlag)
	override(&cfg.Format, formatFlag)
	override(&cfg.Engine, engineFlag)
	override(&cfg.Metrics, metricsFlag)

	if flags.IsSet(genesisFlag) {
		cfg.GenesisHeight = flags.Uint64(genesisFlag)
	}

	return cfg, nil
}

// options returns the options of the contract for the configuration.
func (cfg config) options() ([]vote.Option, error) {
	mode, err := vote.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}

	admin, err := access.NewAddress(cfg.Admin)
	if err != nil {
		return nil, xerrors.Errorf("invalid admin: %v", err)
	}

	ctx, err := cfg.context()
	if err != nil {
		return nil, err
	}

	opts := []vote.Option{
		vote.WithMode(mode),
		vote.WithAdmin(admin),
		vote.WithContext(ctx),
	}

	return opts, nil
}

func (cfg config) context() (serde.Context, error) {
	switch serde.Format(cfg.Format) {
	case serde.FormatJSON:
		return json.NewContext(), nil
	case serde.FormatMsgpack:
		return msgpack.NewContext(), nil
	default:
		return serde.Context{}, xerrors.Errorf("unknown format '%s'", cfg.Format)
	}
}
