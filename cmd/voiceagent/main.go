package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/rileyzt/highiq-voiceagent/internal/api"
	"github.com/rileyzt/highiq-voiceagent/internal/genai"
	"github.com/rileyzt/highiq-voiceagent/internal/store"
	"github.com/rileyzt/highiq-voiceagent/internal/tts"
	"github.com/rileyzt/highiq-voiceagent/internal/twiliovoice"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for voice agent state data
	DefaultStateDir = "/var/lib/voiceagent"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "voiceagent.db"
	// DefaultAudioDirName holds synthesized audio served to Twilio
	DefaultAudioDirName = "audio"
	// DefaultCacheDirName holds the reusable audio cache
	DefaultCacheDirName = "audio-cache"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config)

	// Ensure required directories exist
	if err := ensureDirectoriesExist(flags); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	// Build module options
	genaiOpts := buildGenAIOptions(flags)
	storeOpts := buildStoreOptions(flags)
	twilioOpts := buildTwilioOptions(flags)
	ttsOpts := buildTTSOptions(flags)
	apiOpts := buildAPIOptions(flags)

	// Start the service
	slog.Info("Bootstrapping voice agent with configured modules")
	slog.Debug("Module options counts", "genai", len(genaiOpts), "store", len(storeOpts), "twilio", len(twilioOpts), "tts", len(ttsOpts), "api", len(apiOpts))
	slog.Debug("Final configuration", "state_dir", *flags.stateDir, "dsn_set", *flags.dbDSN != "", "api_addr", *flags.apiAddr)
	if err := api.Run(genaiOpts, storeOpts, twilioOpts, ttsOpts, apiOpts); err != nil {
		slog.Error("Voice agent failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("Voice agent exited successfully")
}

// Config holds environment configuration
type Config struct {
	DatabaseURL   string
	StateDir      string
	GroqKey       string
	OpenAIKey     string
	TwilioSID     string
	TwilioToken   string
	TwilioNumber  string
	APIAddr       string
	ServerBaseURL string
	DemoVideoURL  string
	BookingURL    string
}

// Flags holds command line flag values
type Flags struct {
	stateDir      *string
	dbDSN         *string
	groqKey       *string
	openaiKey     *string
	twilioSID     *string
	twilioToken   *string
	twilioNumber  *string
	apiAddr       *string
	serverBaseURL *string
	demoVideoURL  *string
	bookingURL    *string
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		StateDir:      os.Getenv("VOICEAGENT_STATE_DIR"),
		GroqKey:       os.Getenv("GROQ_API_KEY"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		TwilioSID:     os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioNumber:  os.Getenv("TWILIO_PHONE_NUMBER"),
		APIAddr:       os.Getenv("API_ADDR"),
		ServerBaseURL: os.Getenv("SERVER_BASE_URL"),
		DemoVideoURL:  os.Getenv("DEMO_VIDEO_URL"),
		BookingURL:    os.Getenv("CALENDLY_BOOKING_URL"),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No VOICEAGENT_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	} else {
		slog.Debug("VOICEAGENT_STATE_DIR found in environment", "state_dir", config.StateDir)
	}

	// If no database URL is provided, default to SQLite in the state directory
	if config.DatabaseURL == "" {
		config.DatabaseURL = filepath.Join(config.StateDir, DefaultDBFileName)
		slog.Debug("No database DSN provided, defaulting to SQLite", "sqlite_path", config.DatabaseURL)
	}

	slog.Debug("environment variables loaded",
		"DATABASE_URL_SET", config.DatabaseURL != "",
		"VOICEAGENT_STATE_DIR", config.StateDir,
		"GROQ_API_KEY_SET", config.GroqKey != "",
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"TWILIO_ACCOUNT_SID_SET", config.TwilioSID != "",
		"TWILIO_PHONE_NUMBER", config.TwilioNumber,
		"API_ADDR", config.APIAddr,
		"SERVER_BASE_URL", config.ServerBaseURL)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config) Flags {
	flags := Flags{
		stateDir:      flag.String("state-dir", config.StateDir, "state directory for voice agent data (overrides $VOICEAGENT_STATE_DIR)"),
		dbDSN:         flag.String("db-dsn", config.DatabaseURL, "database DSN for the activity log (overrides $DATABASE_URL)"),
		groqKey:       flag.String("groq-api-key", config.GroqKey, "Groq API key for reply generation (overrides $GROQ_API_KEY)"),
		openaiKey:     flag.String("openai-api-key", config.OpenAIKey, "OpenAI API key for speech synthesis (overrides $OPENAI_API_KEY)"),
		twilioSID:     flag.String("twilio-account-sid", config.TwilioSID, "Twilio account SID (overrides $TWILIO_ACCOUNT_SID)"),
		twilioToken:   flag.String("twilio-auth-token", config.TwilioToken, "Twilio auth token (overrides $TWILIO_AUTH_TOKEN)"),
		twilioNumber:  flag.String("twilio-phone-number", config.TwilioNumber, "Twilio phone number the agent calls and texts from (overrides $TWILIO_PHONE_NUMBER)"),
		apiAddr:       flag.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		serverBaseURL: flag.String("server-base-url", config.ServerBaseURL, "externally reachable base URL for Twilio webhooks (overrides $SERVER_BASE_URL)"),
		demoVideoURL:  flag.String("demo-video-url", config.DemoVideoURL, "demo video link sent by SMS (overrides $DEMO_VIDEO_URL)"),
		bookingURL:    flag.String("booking-url", config.BookingURL, "fallback consultation booking link (overrides $CALENDLY_BOOKING_URL)"),
	}

	flag.Parse()

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"dbDSN_set", *flags.dbDSN != "",
		"groqKeySet", *flags.groqKey != "",
		"openaiKeySet", *flags.openaiKey != "",
		"twilioSIDSet", *flags.twilioSID != "",
		"apiAddr", *flags.apiAddr,
		"serverBaseURL", *flags.serverBaseURL)

	// Update database DSN if not explicitly set but state directory is provided
	if *flags.dbDSN == config.DatabaseURL && config.DatabaseURL == filepath.Join(config.StateDir, DefaultDBFileName) && *flags.stateDir != config.StateDir {
		*flags.dbDSN = filepath.Join(*flags.stateDir, DefaultDBFileName)
		slog.Debug("Updated dbDSN based on state directory", "dsn_updated", true, "old_state_dir", config.StateDir, "new_state_dir", *flags.stateDir)
	}

	return flags
}

// ensureDirectoriesExist creates necessary directories for file-based storage
func ensureDirectoriesExist(flags Flags) error {
	if store.DetectDSNType(*flags.dbDSN) != "postgres" {
		stateDir := filepath.Dir(*flags.dbDSN)
		slog.Debug("Creating state directory for file-based database", "state_dir", stateDir)
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			slog.Error("Failed to create state directory", "error", err, "state_dir", stateDir)
			return err
		}
	}
	for _, dir := range []string{audioDir(flags), cacheDir(flags)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("Failed to create audio directory", "error", err, "dir", dir)
			return err
		}
	}
	return nil
}

// audioDir is where synthesized audio is published for Twilio to fetch.
func audioDir(flags Flags) string {
	return filepath.Join(*flags.stateDir, DefaultAudioDirName)
}

// cacheDir is where reusable synthesized audio is kept.
func cacheDir(flags Flags) string {
	return filepath.Join(*flags.stateDir, DefaultCacheDirName)
}

// buildGenAIOptions constructs reply generation configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.groqKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.groqKey))
	}
	return genaiOpts
}

// buildStoreOptions constructs store configuration options
func buildStoreOptions(flags Flags) []store.Option {
	var storeOpts []store.Option
	if *flags.dbDSN != "" {
		if store.DetectDSNType(*flags.dbDSN) == "postgres" {
			slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_type", "postgresql", "dsn_set", true)
			storeOpts = append(storeOpts, store.WithPostgresDSN(*flags.dbDSN))
		} else {
			slog.Debug("Detected SQLite DSN, configuring SQLite store", "dsn_type", "sqlite", "db_path", *flags.dbDSN)
			storeOpts = append(storeOpts, store.WithSQLiteDSN(*flags.dbDSN))
		}
	} else {
		slog.Debug("No database DSN provided, will use in-memory store")
	}
	return storeOpts
}

// buildTwilioOptions constructs Twilio configuration options
func buildTwilioOptions(flags Flags) []twiliovoice.Option {
	var twilioOpts []twiliovoice.Option
	if *flags.twilioSID != "" {
		twilioOpts = append(twilioOpts, twiliovoice.WithAccountSID(*flags.twilioSID))
	}
	if *flags.twilioToken != "" {
		twilioOpts = append(twilioOpts, twiliovoice.WithAuthToken(*flags.twilioToken))
	}
	if *flags.twilioNumber != "" {
		twilioOpts = append(twilioOpts, twiliovoice.WithFromNumber(*flags.twilioNumber))
	}
	return twilioOpts
}

// buildTTSOptions constructs speech synthesis configuration options
func buildTTSOptions(flags Flags) []tts.Option {
	ttsOpts := []tts.Option{
		tts.WithPublicDir(audioDir(flags)),
		tts.WithCacheDir(cacheDir(flags)),
	}
	if *flags.openaiKey != "" {
		ttsOpts = append(ttsOpts, tts.WithAPIKey(*flags.openaiKey))
	}
	if *flags.serverBaseURL != "" {
		ttsOpts = append(ttsOpts, tts.WithServerBaseURL(*flags.serverBaseURL))
	}
	return ttsOpts
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	apiOpts := []api.Option{
		api.WithAudioDir(audioDir(flags)),
	}
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	if *flags.serverBaseURL != "" {
		apiOpts = append(apiOpts, api.WithServerBaseURL(*flags.serverBaseURL))
	}
	if *flags.demoVideoURL != "" {
		apiOpts = append(apiOpts, api.WithDemoVideoURL(*flags.demoVideoURL))
	}
	if *flags.bookingURL != "" {
		apiOpts = append(apiOpts, api.WithBookingURL(*flags.bookingURL))
	}
	return apiOpts
}
