package config

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string // connection string for the database
	WaitForServices    string // duration to wait for other services to be ready
	LogLevel           string // sets the log level (zap log level values)
	SQLLogLevel        string // sets the log level for sql subsystem
	LogFormat          string // text vs json
	LogFilter          string // zapfilter rules, e.g. "*:* debug:race.*"
	LogFile            string // write log output to this file instead of stderr
	MigrationSourceURL string // location of migration files
	EnableTelemetry    bool   // enable telemetry
	TelemetryEndpoint  string // endpoint for telemetry, "stdout" prints to console
	ProfilingPort      int    // port for profiling
	NatsURL            string // publish race events to this NATS server
	NatsPrefix         string // subject prefix for race events
	Character          string // selected player character
	TrackFile          string // track definition file, empty uses the built-in track
	AICount            int    // number of AI racers
	Seed               uint64 // seed for AI personalities, 0 picks a random seed
	WatchTuning        bool   // reload tuning when the config file changes
	SpectateAddr       string // listen addr of the spectator endpoint
	SpectateTLSCert    string // cert file for the spectator endpoint
	SpectateTLSKey     string // key file for the spectator endpoint
	SpectateAcmeFile   string // acme json file (e.g. traefik) holding the spectator cert
	SpectateAcmeDomain string // domain to look up in SpectateAcmeFile
	StoreResult        bool   // store race results in the database
)
