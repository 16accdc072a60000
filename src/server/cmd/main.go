package main

import (
	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/server/config"
	"github.com/maxogod/distro-lottery/src/server/internal/server"
	flag "github.com/spf13/pflag"
)

func main() {
	configPath := flag.String("config", "", "path to the server config file (defaults to "+config.CONFIG_FILE_PATH+")")
	flag.Parse()

	conf, err := config.InitConfig(*configPath)
	if err != nil {
		logger.Logger.Fatalf("action: init_config | result: fail | error: %v", err)
	}

	logger.InitLogger(logger.LoggerEnvironment(conf.LogLevel))
	defer logger.Sync()
	logger.Logger.Infof("action: config | result: success | %s", conf)

	s, err := server.NewServer(conf)
	if err != nil {
		logger.Logger.Fatalf("action: init_server | result: fail | error: %v", err)
	}

	if err := s.Run(); err != nil {
		logger.Logger.Errorf("action: run_server | result: fail | error: %v", err)
	}
}
