// Package main generates a development CA and a server certificate for the
// notes API, writing them under the output directory.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/atinyakov/VoiceNotes/internal/certgen"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := fs.String("out", "certs", "output directory")
	hosts := fs.String("hosts", "localhost,127.0.0.1", "comma-separated server host names and IPs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ca, err := certgen.GenerateCA("VoiceNotes Dev CA")
	if err != nil {
		return err
	}
	if err := ca.WriteFiles(*dir, "ca"); err != nil {
		return err
	}

	caCert, caKey, err := certgen.ParseCA(ca)
	if err != nil {
		return err
	}
	server, err := certgen.GenerateServerCertificate(splitHosts(*hosts), caCert, caKey)
	if err != nil {
		return err
	}
	if err := server.WriteFiles(*dir, "server"); err != nil {
		return err
	}

	fmt.Printf("Certificates generated into %s\n", *dir)
	return nil
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
