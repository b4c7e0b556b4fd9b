package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/julianstephens/clinichat/internal/constants"
)

// Window is an opening interval within one day, both ends as HH:MM.
type Window struct {
	Start string `mapstructure:"start" yaml:"start"`
	End   string `mapstructure:"end" yaml:"end"`
}

// Schedule defines the bookable windows of the clinic.
type Schedule struct {
	Work        Window   `mapstructure:"work"`
	Saturday    Window   `mapstructure:"saturday"`
	SlotMinutes int      `mapstructure:"slot_minutes"`
	Holidays    []string `mapstructure:"holidays"`
	FutureDays  int      `mapstructure:"future_days"`
}

// Specialty is a medical specialty and the professionals that attend it.
type Specialty struct {
	Name    string   `mapstructure:"name"`
	Doctors []string `mapstructure:"doctors"`
}

type Clinic struct {
	Name        string      `mapstructure:"name"`
	Specialties []Specialty `mapstructure:"specialties"`
}

type Reminder struct {
	Delay  time.Duration `mapstructure:"delay"`
	Notify bool          `mapstructure:"notify"`
}

type Storage struct {
	Source string `mapstructure:"source"`
}

type Server struct {
	Addr string `mapstructure:"addr"`
}

// Config is the full runtime configuration.
type Config struct {
	Clinic   Clinic   `mapstructure:"clinic"`
	Schedule Schedule `mapstructure:"schedule"`
	Reminder Reminder `mapstructure:"reminder"`
	Storage  Storage  `mapstructure:"storage"`
	Server   Server   `mapstructure:"server"`
	Locale   string   `mapstructure:"locale"`
}

// DefaultSpecialties is the clinic roster used when none is configured.
func DefaultSpecialties() []Specialty {
	return []Specialty{
		{Name: "Clínica Geral", Doctors: []string{"Dra. Ana Silva", "Dr. João Souza"}},
		{Name: "Ortopedia", Doctors: []string{"Dr. Marcos Rocha"}},
		{Name: "Dermatologia", Doctors: []string{"Dra. Luiza Campos"}},
		{Name: "Cardiologia", Doctors: []string{"Dr. Pedro Andrade"}},
		{Name: "Pediatria", Doctors: []string{"Dra. Fernanda Lopes"}},
	}
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() Config {
	return Config{
		Clinic: Clinic{
			Name:        "Clínica Saúde+",
			Specialties: DefaultSpecialties(),
		},
		Schedule: Schedule{
			Work:        Window{Start: "09:00", End: "19:00"},
			Saturday:    Window{Start: "08:00", End: "12:00"},
			SlotMinutes: 30,
			Holidays:    []string{},
			FutureDays:  7,
		},
		Reminder: Reminder{Delay: 10 * time.Second},
		Server:   Server{Addr: ":8080"},
		Locale:   "en",
	}
}

// DefaultDir returns ~/.config/clinichat.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+constants.AppName)
	}
	return filepath.Join(home, ".config", constants.AppName)
}

// Load reads config.yaml from dir, then applies CLINICHAT_* environment
// overrides. A .env file in the working directory is loaded first when
// present. A missing config file is not an error.
func Load(dir string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName(constants.ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Clinic.Specialties) == 0 {
		cfg.Clinic.Specialties = DefaultSpecialties()
	}
	if cfg.Storage.Source == "" {
		cfg.Storage.Source = filepath.Join(dir, constants.StoreFileName)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("clinic.name", d.Clinic.Name)
	v.SetDefault("schedule.work.start", d.Schedule.Work.Start)
	v.SetDefault("schedule.work.end", d.Schedule.Work.End)
	v.SetDefault("schedule.saturday.start", d.Schedule.Saturday.Start)
	v.SetDefault("schedule.saturday.end", d.Schedule.Saturday.End)
	v.SetDefault("schedule.slot_minutes", d.Schedule.SlotMinutes)
	v.SetDefault("schedule.holidays", d.Schedule.Holidays)
	v.SetDefault("schedule.future_days", d.Schedule.FutureDays)
	v.SetDefault("reminder.delay", d.Reminder.Delay)
	v.SetDefault("reminder.notify", d.Reminder.Notify)
	v.SetDefault("storage.source", "")
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("locale", d.Locale)
}

// Validate checks every field the calendar rules depend on.
func (c Config) Validate() error {
	for name, w := range map[string]Window{"work": c.Schedule.Work, "saturday": c.Schedule.Saturday} {
		start, err := time.Parse(constants.TimeFormat, w.Start)
		if err != nil {
			return fmt.Errorf("schedule.%s.start %q: expected HH:MM", name, w.Start)
		}
		end, err := time.Parse(constants.TimeFormat, w.End)
		if err != nil {
			return fmt.Errorf("schedule.%s.end %q: expected HH:MM", name, w.End)
		}
		if !start.Before(end) {
			return fmt.Errorf("schedule.%s: start %s must be before end %s", name, w.Start, w.End)
		}
	}
	if c.Schedule.SlotMinutes <= 0 {
		return fmt.Errorf("schedule.slot_minutes must be positive, got %d", c.Schedule.SlotMinutes)
	}
	if c.Schedule.FutureDays <= 0 {
		return fmt.Errorf("schedule.future_days must be positive, got %d", c.Schedule.FutureDays)
	}
	for _, h := range c.Schedule.Holidays {
		if _, err := time.Parse(constants.DateFormat, h); err != nil {
			return fmt.Errorf("schedule.holidays: %q is not a YYYY-MM-DD date", h)
		}
	}
	if c.Reminder.Delay < 0 {
		return fmt.Errorf("reminder.delay must not be negative")
	}
	switch c.Locale {
	case "en", "pt":
	default:
		return fmt.Errorf("locale %q is not supported (use en or pt)", c.Locale)
	}
	return nil
}

// Doctors returns the professionals for a specialty, matching the name
// case-insensitively.
func (c Config) Doctors(specialty string) []string {
	for _, s := range c.Clinic.Specialties {
		if strings.EqualFold(s.Name, specialty) {
			return s.Doctors
		}
	}
	return nil
}
