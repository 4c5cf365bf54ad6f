package global

var (
	AppName        = "starfieldsaver"
	Version        = "2.0.0"
	UpdateRepo     = "dannystewart/starfield-saver"
	ConfigFileName = "quicksave.toml"
	LogFileName    = "starfieldsaver.log"
)
