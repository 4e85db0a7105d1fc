package main

import (
	"flag"
	"os"

	"github.com/poorlydb/poorlydb/internal/auth"
	"github.com/poorlydb/poorlydb/internal/conn"
	"github.com/poorlydb/poorlydb/internal/engine"
	"github.com/poorlydb/poorlydb/pkg"
)

func main() {
	cwd, _ := os.Getwd()

	db_path := flag.String("db", cwd+"/poorly_data", "path to the server folder")
	port := flag.Int("port", 7085, "listening port")
	should_log := flag.Bool("log", true, "print info logs")
	show_debug_logs := flag.Bool("dbg", false, "print debug logs")
	username := flag.String("username", "", "root user name")
	password := flag.String("password", "", "root user password")

	flag.Parse()

	if *should_log {
		if *show_debug_logs {
			pkg.SetLogLevel(pkg.LogLevelDebug)
		} else {
			pkg.SetLogLevel(pkg.LogLevelErrOnly)
		}
	} else {
		pkg.SetLogLevel(pkg.LogLevelNone)
	}

	var root_user *auth.User
	if *username != "" {
		root_user = auth.NewUser(*username, *password)
	} else {
		pkg.WarnLog("no root user configured, connections are unauthenticated")
	}

	e, err := engine.Open(*db_path)
	if err != nil {
		pkg.FatalLog(err)
	}
	if err := e.Init(); err != nil {
		pkg.FatalLog(err)
	}

	conn.NewServer(e, root_user).Listen(*port)
}
