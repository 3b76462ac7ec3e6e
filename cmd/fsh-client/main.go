// Command fsh-client is a reference interactive client for fshd. It is not
// part of the wire contract: fshd speaks the same framed protocol to any
// conforming client. fsh-client exists to exercise that protocol end to
// end and as a demonstration shell for folders with no better-suited
// client available.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

func main() {
	var (
		server         = flag.String("server", "127.0.0.1:7878", "fshd address (host:port)")
		folder         = flag.String("folder", "", "folder to bind (required)")
		authType       = flag.String("auth-type", "", "authentication type (empty if the folder requires none)")
		token          = flag.String("token", "", "credential value for -auth-type")
		preferredShell = flag.String("shell", "", "preferred shell type, if the folder allows a choice")
		timeout        = flag.Duration("timeout", 10*time.Second, "connection timeout")
	)
	flag.Parse()

	if *folder == "" {
		fmt.Fprintln(os.Stderr, "error: -folder is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*server, *folder, *authType, *token, *preferredShell, *timeout); err != nil {
		fmt.Fprintf(os.Stderr, "fsh-client: %v\n", err)
		os.Exit(1)
	}
}

func run(server, folder, authType, token, preferredShell string, timeout time.Duration) error {
	c, err := dial(server, timeout)
	if err != nil {
		return err
	}
	defer c.close("client exiting")

	if authType != "" {
		if err := c.authenticate(authType, map[string]string{"token": token}); err != nil {
			return err
		}
	}

	if err := c.bindFolder(folder, preferredShell); err != nil {
		return err
	}

	return newTerminal(c).run()
}
