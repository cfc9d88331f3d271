package ioc

import (
	"github.com/KNICEX/overheat-monitor/internal/service/notification"
	"github.com/KNICEX/overheat-monitor/internal/service/notification/email"
	"github.com/KNICEX/overheat-monitor/internal/service/notification/serverchan"
	"github.com/spf13/viper"
)

func InitEmailChannel() notification.Channel {
	cfg := email.Config{
		Host: "smtp.gmail.com",
		Port: 465,
	}
	if err := viper.UnmarshalKey("notification.email", &cfg); err != nil {
		panic(err)
	}
	return email.NewService(cfg)
}

func InitServerChanChannel() notification.Channel {
	type Config struct {
		SendKey string `mapstructure:"send_key"`
	}

	var cfg Config
	if err := viper.UnmarshalKey("notification.serverchan", &cfg); err != nil {
		panic(err)
	}
	return serverchan.NewService(cfg.SendKey)
}
