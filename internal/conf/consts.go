// conf/consts.go hard coded constants
package conf

const (
	AppName        = "nutritive"
	ConfigFileName = "config.yaml"
)
