package utils

import (
	"context"
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/mpapenbr/snailrace/log"
)

const retryInterval = 200 * time.Millisecond

// WaitForTCP tries to connect to addr until it succeeds or the timeout is reached
func WaitForTCP(ctx context.Context, addr string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	log.Debug("wait for tcp connection",
		log.String("addr", addr),
		log.Duration("timeout", timeout))
	var d net.Dialer
	for {
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			log.Debug("tcp connection successful",
				log.String("addr", addr),
				log.Duration("duration", time.Since(start)))
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s could not be reached after %v: %w", addr, timeout, err)
		case <-time.After(retryInterval):
		}
	}
}

// ExtractFromNatsURL returns host:port of a nats url. The default port is 4222.
func ExtractFromNatsURL(url string) string {
	param := resolveRegex(
		"^nats://(.*@)?(?P<addr>(?P<host>[^:/]*?)(:(?P<port>\\d+))?)/?$", url)
	return hostPort(param, "4222")
}

// ExtractFromDBURL returns host:port of a postgres url. The default port is 5432.
func ExtractFromDBURL(url string) string {
	param := resolveRegex(
		"^postgres(ql)?://(.*@)?(?P<addr>(?P<host>.*?)(:(?P<port>\\d+))?)/.*", url)
	return hostPort(param, "5432")
}

func hostPort(param map[string]string, defaultPort string) string {
	if len(param) == 0 || param["host"] == "" {
		return ""
	}
	if port, ok := param["port"]; ok && port != "" {
		return param["addr"] // if port is found, the addr contains our wanted value
	}
	return fmt.Sprintf("%s:%s", param["host"], defaultPort)
}

func resolveRegex(regEx, url string) (paramsMap map[string]string) {
	compRegEx := regexp.MustCompile(regEx)
	match := compRegEx.FindStringSubmatch(url)
	if match == nil {
		return nil
	}
	paramsMap = make(map[string]string)
	for i, name := range compRegEx.SubexpNames() {
		if i > 0 && name != "" {
			paramsMap[name] = match[i]
		}
	}
	return paramsMap
}
