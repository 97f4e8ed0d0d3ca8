package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env      string
		Timezone string
	} `mapstructure:"app"`

	WhatsApp struct {
		Token       string
		PhoneID     string `mapstructure:"phone_id"`
		VerifyToken string `mapstructure:"verify_token"`
	} `mapstructure:"whatsapp"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Excel struct {
		URL            string
		SheetName      string        `mapstructure:"sheet_name"`
		RelacionesPath string        `mapstructure:"relaciones_path"`
		CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"excel"`

	// Números de WhatsApp con permisos de administrador (broadcast).
	Admins []string `mapstructure:"admins"`

	Escuela Escuela `mapstructure:"escuela"`

	Delay struct {
		MinMS int `mapstructure:"min_ms"`
		MaxMS int `mapstructure:"max_ms"`
	} `mapstructure:"delay"`
}

// Escuela es el bloque informativo que el bot envía en las opciones 3 y 4.
type Escuela struct {
	Nombre    string `mapstructure:"nombre"`
	Direccion string `mapstructure:"direccion"`
	Telefono  string `mapstructure:"telefono"`
	Email     string `mapstructure:"email"`
	Horario   string `mapstructure:"horario"`
	SitioWeb  string `mapstructure:"sitio_web"`
	BAC       string `mapstructure:"bac"`
	Occidente string `mapstructure:"occidente"`
}

func Load(path string) (Config, error) {
	_ = gotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()

	v.SetDefault("excel.cache_ttl", time.Hour)
	v.SetDefault("excel.sheet_name", "MATRICULA 2025")
	v.SetDefault("excel.relaciones_path", "relaciones.xlsx")
	v.SetDefault("delay.min_ms", 5000)
	v.SetDefault("delay.max_ms", 20000)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
