package internal

import "time"

type Config struct {
	BadgerFilepath string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string        `env:"LOG_LEVEL,required=true"`
	SessionBudget  time.Duration `env:"SESSION_BUDGET,required=true"`
	ReapInterval   time.Duration `env:"REAP_INTERVAL,required=true"`
	FlushInterval  time.Duration `env:"FLUSH_INTERVAL,required=true"`
	StatsInterval  time.Duration `env:"STATS_INTERVAL,default=30s"`
	AuditReceiver  string        `env:"AUDIT_RECEIVER,required=true"`
	Host           string        `env:"HOST"`
	Port           int           `env:"PORT,required=true"`
	DebugPort      int           `env:"DEBUG_PORT"`
}
