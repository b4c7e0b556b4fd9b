package constants

import "time"

const (
	AppName = "clinichat"

	// DateFormat is the ISO layout used for appointment dates.
	DateFormat = "2006-01-02"
	// TimeFormat is the clock layout used inside a time range.
	TimeFormat = "15:04"
	// SlotSeparator joins the two ends of a time range.
	SlotSeparator = " - "

	// AppointmentsKey is the key-value entry holding all appointments.
	AppointmentsKey = "clinic_appts"

	// BusinessDayScanLimit bounds the forward scan for bookable days.
	BusinessDayScanLimit = 40
	// MaxSlotChoices caps the number of time slots offered at once.
	MaxSlotChoices = 40

	MaxBackups = 14

	EnvPrefix      = "CLINICHAT"
	ConfigFileName = "config"
	StoreFileName  = "appointments.json"

	// Desktop notifications go to a companion tray process.
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "clinichat-notifier.lock"
	NotificationDurationMs = 8000
	TrayAppIdentifier      = "com.julianstephens.clinichat"
	TrayExecutablePrefix   = "clinichat-tray"

	// Keyring entries for backend connection strings.
	KeyringUserPostgres = "postgres"
	KeyringUserRedis    = "redis"
)
