package main

import (
	"log"
	"os"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
	"github.com/trezcool/coursework/core/user"
	"github.com/trezcool/coursework/services/events"
	logsvc "github.com/trezcool/coursework/services/logger"
	"github.com/trezcool/coursework/storage/kvstore"
	"github.com/trezcool/coursework/storage/records"
)

var logger core.Logger

func main() {
	conf := core.NewConfig()
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger = logsvc.NewRollbarLogger(std, conf)

	// set up store
	backend, err := kvstore.OpenBackend(conf)
	errAndDie(err)
	store := kvstore.New(backend, events.NewBus(logger), logger)
	db := records.New(store, logger)

	// start CLI
	usrRepo := records.NewUserRepository(db)
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(usrRepo),
		asgSvc: assignment.NewService(records.NewAssignmentRepository(db), usrRepo),
		out:    os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := store.Close(); cErr != nil {
		logger.Error("admin: closing store", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("admin: "+args(os.Args), err)
		}
		os.Exit(1)
	}
}

func args(all []string) string {
	if len(all) < 2 {
		return ""
	}
	return all[1]
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal("admin: opening store", err)
	}
}
