package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/inboxops/relay/agent"
	"github.com/inboxops/relay/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type cfg struct {
	config.Config
}
type cli struct {
	cfg cfg
}

func setupFlags(cmd *cobra.Command) error {
	cmd.Flags().String("config-file", "", "Path to config file.")
	cmd.Flags().Int("http-port", 8080, "http port for rest endpoints")
	cmd.Flags().String("sqlite-path", "relay.db", "path of the sqlite database file")
	cmd.Flags().String("redis-addr", "localhost:6379", "comma separated list of redis host:port")
	cmd.Flags().String("namespace", "relay", "namespace used in queue keys")
	cmd.Flags().String("encryption-key", "", "key used to seal integration credentials")
	cmd.Flags().Int("executor-capacity", 16, "number of concurrent run executors")
	cmd.Flags().Int("poll-batch-size", 10, "runs popped from the queue per poll")
	cmd.Flags().Int("scheduler-tick", 30, "seconds between schedule trigger scans")
	cmd.Flags().Bool("reaper-enabled", true, "fail runs abandoned by a crashed process")
	cmd.Flags().Int("reaper-tick", 60, "seconds between abandoned run sweeps")
	cmd.Flags().Int("reaper-abandoned-after", 60, "minutes before a running run counts as abandoned")
	return viper.BindPFlags(cmd.Flags())
}

func (c *cli) setupConfig(cmd *cobra.Command, args []string) error {
	var err error

	configFile, err := cmd.Flags().GetString("config-file")
	if err != nil {
		return err
	}
	viper.SetConfigFile(configFile)

	if err = viper.ReadInConfig(); err != nil {
		// it's ok if config file doesn't exist
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configFile != "" {
			return err
		}
	}

	c.cfg.HttpPort = viper.GetInt("http-port")
	c.cfg.SqliteConfig.Path = viper.GetString("sqlite-path")
	c.cfg.RedisQueueConfig.Addrs = strings.Split(viper.GetString("redis-addr"), ",")
	c.cfg.RedisQueueConfig.Namespace = viper.GetString("namespace")
	c.cfg.EncryptionKey = viper.GetString("encryption-key")
	c.cfg.ExecutorCapacity = viper.GetInt("executor-capacity")
	c.cfg.PollBatchSize = viper.GetInt("poll-batch-size")
	c.cfg.SchedulerTickSecond = viper.GetInt("scheduler-tick")
	c.cfg.ReaperConfig.Enabled = viper.GetBool("reaper-enabled")
	c.cfg.ReaperConfig.SweepTickSecond = viper.GetInt("reaper-tick")
	c.cfg.ReaperConfig.AbandonedAfterMin = viper.GetInt("reaper-abandoned-after")
	return nil
}

func (c *cli) run(cmd *cobra.Command, args []string) error {
	agent, err := agent.New(c.cfg.Config)
	if err != nil {
		panic(err)
	}
	err = agent.Start()
	if err != nil {
		panic(err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	return agent.Shutdown()
}

func main() {
	cli := &cli{}

	cmd := &cobra.Command{
		Use:     "relay",
		PreRunE: cli.setupConfig,
		RunE:    cli.run,
	}

	if err := setupFlags(cmd); err != nil {
		log.Fatal(err)
	}

	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
