package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig   `mapstructure:"app"`
	RPC   RPCConfig   `mapstructure:"rpc"`
	Relay RelayConfig `mapstructure:"relay"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type RPCConfig struct {
	URL          string        `mapstructure:"url"`           // 环境变量 RPC_URL
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`  // 建立连接的超时
	PollInterval time.Duration `mapstructure:"poll_interval"` // 确认回执的轮询间隔
}

type RelayConfig struct {
	HttpPort        string        `mapstructure:"http_port"`
	ConfirmTimeout  time.Duration `mapstructure:"confirm_timeout"` // 回执接口的最长等待时间
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

var Global Config

// Init 加载配置，优先级：命令行 flag (调用方 BindPFlag) > 环境变量 > config.yaml > 默认值。
// 当前目录下的 .env 会先被加载进环境变量，已存在的环境变量不会被覆盖。
func Init() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("加载 .env 失败: %w", err)
	}

	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// 环境变量设置: rpc.url -> RPC_URL
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		return fmt.Errorf("解析配置失败: %w", err)
	}
	return Global.Validate()
}

// Validate 检查会导致运行期异常的配置
func (c Config) Validate() error {
	if c.RPC.PollInterval <= 0 {
		return fmt.Errorf("rpc.poll_interval 必须大于 0, 当前为 %s", c.RPC.PollInterval)
	}
	if c.Relay.ConfirmTimeout < 0 {
		return fmt.Errorf("relay.confirm_timeout 不能为负数")
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.log_level", "")

	viper.SetDefault("rpc.url", "")
	viper.SetDefault("rpc.dial_timeout", 10*time.Second)
	viper.SetDefault("rpc.poll_interval", time.Second)

	viper.SetDefault("relay.http_port", "8080")
	viper.SetDefault("relay.confirm_timeout", 2*time.Minute)
	viper.SetDefault("relay.shutdown_timeout", 5*time.Second)
}
