package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port          string
	PlatformsFile string
	WorkerCount   int
	BatchTimeout  int
	APIAccessKey  string
	HistoryMode   bool

	// Fetch credentials
	YouTubeAPIKey      string
	InstagramSessionID string

	// Background refresh
	RefreshInterval   int
	SchedulerInterval int

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
