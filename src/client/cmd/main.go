package main

import (
	"time"

	"github.com/maxogod/distro-lottery/src/client/config"
	"github.com/maxogod/distro-lottery/src/client/internal/client"
	"github.com/maxogod/distro-lottery/src/common/logger"
	flag "github.com/spf13/pflag"
)

func main() {
	before := time.Now()

	configPath := flag.String("config", "", "path to the client config file (defaults to "+config.CONFIG_FILE_PATH+")")
	flag.Parse()

	conf, err := config.InitConfig(*configPath)
	if err != nil {
		logger.Logger.Fatalf("action: init_config | result: fail | error: %v", err)
	}

	logger.InitLogger(logger.LoggerEnvironment(conf.LogLevel))
	defer logger.Sync()
	logger.Logger.Debugf("action: config | result: success | %s", conf)

	c := client.NewClient(conf)
	if _, err := c.Start(); err != nil {
		logger.Logger.Errorf("action: client_finished | result: fail | client_id: %d | error: %v", conf.AgencyID, err)
		return
	}

	logger.Logger.Infof("action: client_finished | result: success | client_id: %d | elapsed: %s", conf.AgencyID, time.Since(before))
}
