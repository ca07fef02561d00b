package main

import (
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oba-directory/obad/internal/config"
	"github.com/oba-directory/obad/internal/directory"
	"github.com/oba-directory/obad/internal/obalog"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "load the configured partition and run the directory core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
}

func runServe(path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return configErr(err)
	}

	log, err := obalog.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return configErr(err)
	}
	defer log.Sync()

	svc, err := directory.Open(cfg, log)
	if err != nil {
		return runtimeErr(err)
	}
	defer svc.Close()

	if cfg.Server.PIDFile != "" {
		if err := writePIDFile(cfg.Server.PIDFile); err != nil {
			return runtimeErr(err)
		}
		defer os.Remove(cfg.Server.PIDFile)
	}

	log.Info("directory core ready",
		obalog.String("base_dn", cfg.Directory.BaseDN),
		obalog.String("root_dn", cfg.Directory.RootDN),
		obalog.Bool("acl_enabled", cfg.ACL.Enabled),
		obalog.Bool("password_policy_enabled", cfg.Security.PasswordPolicy.Enabled),
	)

	// The wire listener (BER codec, TCP/TLS acceptor) is an external
	// collaborator; this core's serve loop has nothing to accept
	// connections on, so it blocks until told to stop, the way a
	// library's long-running handle would under an embedding host.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for {
		switch s := <-sig; s {
		case syscall.SIGHUP:
			if err := reloadInPlace(svc, path); err != nil {
				log.Warn("reload failed", obalog.Err(err))
				continue
			}
			log.Info("config reloaded")
		case syscall.SIGINT:
			log.Info("interrupted")
			return interruptedErr(nil)
		default:
			log.Info("shutting down")
			return nil
		}
	}
}

func reloadInPlace(svc *directory.Service, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	svc.Config = cfg
	return nil
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644)
}
