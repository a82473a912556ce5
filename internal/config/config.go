package config

import (
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	HTTPAddr string // host:port; port 0 picks a free one

	DBDriver string // sqlite|postgres|memory
	DBDSN    string // postgres DSN; sqlite uses DBPath
	DBPath   string

	ContentDriver string // fs|minio
	ContentDir    string
	Minio         MinioConfig

	FrontendDir string
	StaticDirs  []string

	ViewKey   string
	DeleteKey string

	LogLevel string
	LogFile  string

	CORSOrigins      []string
	SubmitRatePerMin int
	TrustProxy       bool // take client IPs from X-Forwarded-For / X-Real-IP
	SiteID           string
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

// Load reads .flaskenv (overriding the environment) and .env (filling gaps)
// from the working directory, then builds the config.
func Load() Config {
	_ = godotenv.Overload(".flaskenv")
	_ = godotenv.Load(".env")
	return FromEnv()
}

// FromEnv builds the config from the environment and the optional JSON
// manifest named by MCQ_MANIFEST. Environment values win over the manifest.
// Relative manifest paths resolve against the manifest's directory.
func FromEnv() Config {
	manifest := envOr("MCQ_MANIFEST", "mcq-manifest.json")
	root := filepath.Dir(manifest)

	m := viper.New()
	m.SetConfigFile(manifest)
	m.SetConfigType("json")
	m.SetDefault("paths.frontend_dir", "frontend")
	m.SetDefault("paths.quizzes_dir", "quizzes")
	m.SetDefault("paths.db_path", "data.sqlite3")
	_ = m.ReadInConfig()

	frontend := resolve(root, m.GetString("paths.frontend_dir"))
	static := staticDirs(m, root)
	if len(static) == 0 {
		static = []string{frontend}
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = resolve(root, m.GetString("paths.db_path"))
	}

	return Config{
		HTTPAddr: httpAddr(),

		DBDriver: strings.ToLower(envOr("DB_DRIVER", "sqlite")),
		DBDSN:    os.Getenv("DB_DSN"),
		DBPath:   dbPath,

		ContentDriver: strings.ToLower(envOr("CONTENT_DRIVER", "fs")),
		ContentDir:    envOr("CONTENT_DIR", resolve(root, m.GetString("paths.quizzes_dir"))),
		Minio: MinioConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    envOr("MINIO_BUCKET", "quizzes"),
			Prefix:    os.Getenv("MINIO_PREFIX"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},

		FrontendDir: frontend,
		StaticDirs:  static,

		ViewKey:   envKey("VIEW_KEY"),
		DeleteKey: envKey("DELETE_KEY"),

		LogLevel: envOr("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		CORSOrigins:      csvOr("CORS_ORIGINS", "*"),
		SubmitRatePerMin: envInt("SUBMIT_RATE_PER_MIN", 0),
		TrustProxy:       envBool("TRUST_PROXY", false),
		SiteID:           envOr("SITE_ID", "local"),
	}
}

// staticDirs lists the manifest mounts served under /static.
func staticDirs(m *viper.Viper, root string) []string {
	var mounts []struct {
		URLPrefix string `mapstructure:"url_prefix"`
		Dir       string `mapstructure:"dir"`
	}
	if err := m.UnmarshalKey("static.mounts", &mounts); err != nil {
		return nil
	}
	var out []string
	for _, mt := range mounts {
		if mt.URLPrefix != "/static" {
			continue
		}
		dir := mt.Dir
		if dir == "" {
			dir = "frontend"
		}
		out = append(out, resolve(root, dir))
	}
	return out
}

func httpAddr() string {
	if a := os.Getenv("HTTP_ADDR"); a != "" {
		return a
	}
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "0"
	}
	return net.JoinHostPort(envOr("HOST", "127.0.0.1"), port)
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// envKey reads a secret: surrounding whitespace and one pair of matching
// quotes are removed.
func envKey(k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if len(v) >= 2 && v[0] == v[len(v)-1] && (v[0] == '"' || v[0] == '\'') {
		v = v[1 : len(v)-1]
	}
	return v
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(k))); err == nil {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
