package env

import (
	"fmt"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zenv"
	"github.com/joho/godotenv"
)

type EnvStruct struct {
	TOKENS         string `zog:"SGS_TOKENS"`
	DATA_DIR       string `zog:"SGS_DATA_DIR"`
	CONFIG_PATH    string `zog:"SGS_CONFIG"`
	NOTIFY_WEBHOOK string `zog:"SGS_NOTIFY_WEBHOOK"`
	LOG_LEVEL      string `zog:"SGS_LOG_LEVEL"`
}

var EnvSchema = z.Struct(z.Shape{
	"TOKENS":         z.String().Optional(),
	"DATA_DIR":       z.String().Default("~/.sanguoxianhua").Trim(),
	"CONFIG_PATH":    z.String().Optional().Trim(),
	"NOTIFY_WEBHOOK": z.String().Optional().Trim(),
	"LOG_LEVEL":      z.String().Default("info").Trim().OneOf([]string{"debug", "info", "warn", "error"}),
})

// Load reads a .env file from the working directory when there is one, then
// parses the environment.
func Load() (*EnvStruct, error) {
	_ = godotenv.Load()
	parsed := &EnvStruct{}
	if errs := EnvSchema.Parse(zenv.NewDataProvider(), parsed); errs != nil {
		return nil, fmt.Errorf("invalid environment: %v", z.Issues.FlattenAndCollect(errs))
	}
	return parsed, nil
}
