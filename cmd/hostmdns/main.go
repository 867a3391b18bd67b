package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/maeshinshin/hostmdns"
)

var debug = flag.Bool("debug", false, "Enable debug mode")

type recordFlag []hostmdns.Record

func (f *recordFlag) String() string {
	hosts := make([]string, len(*f))
	for i, rec := range *f {
		hosts[i] = rec.Host
	}
	return strings.Join(hosts, " ")
}

// Set parses host,ttl,ipv4[,ipv6].
func (f *recordFlag) Set(v string) error {
	fields := strings.Split(v, ",")
	if len(fields) != 3 && len(fields) != 4 {
		return errors.New("want host,ttl,ipv4[,ipv6]")
	}

	ttl, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return fmt.Errorf("ttl: %w", err)
	}
	rec := hostmdns.Record{Host: fields[0], TTL: uint32(ttl)}
	if rec.IPv4, err = netip.ParseAddr(fields[2]); err != nil {
		return fmt.Errorf("ipv4: %w", err)
	}
	if len(fields) == 4 {
		if rec.IPv6, err = netip.ParseAddr(fields[3]); err != nil {
			return fmt.Errorf("ipv6: %w", err)
		}
	}
	*f = append(*f, rec)
	return nil
}

func main() {
	var records recordFlag
	flag.Var(&records, "record", "Record to advertise as host,ttl,ipv4[,ipv6] (repeatable)")
	flag.Parse()

	if *debug {
		hostmdns.SetDebug()
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stderr, "at least one -record is required")
		flag.Usage()
		os.Exit(2)
	}

	m, err := hostmdns.New()
	if err != nil {
		panic(err)
	}
	for _, rec := range records {
		if err := m.AddRecord(rec.Host, rec.TTL, rec.IPv4, rec.IPv6); err != nil {
			panic(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := m.Start(ctx); err != nil {
		panic(err)
	}
	defer m.Stop()

	fmt.Println("mDNS responder running. Press Ctrl+C to exit.")
	<-ctx.Done()
}
