package logs

import (
	"log/slog"
	"strings"

	"github.com/grafana/loki-client-go/loki"
	promconfig "github.com/prometheus/common/config"
	slogloki "github.com/samber/slog-loki/v3"

	"github.com/Alijeyrad/carevisit_backend/config"
)

func newLokiHandler(cfg config.LokiConfig, level slog.Level) (slog.Handler, func(), error) {
	lc, err := loki.NewDefaultConfig(strings.TrimRight(cfg.Endpoint, "/") + "/loki/api/v1/push")
	if err != nil {
		return nil, nil, err
	}
	lc.TenantID = cfg.TenantID
	if cfg.Username != "" {
		lc.Client.BasicAuth = &promconfig.BasicAuth{
			Username: cfg.Username,
			Password: promconfig.Secret(cfg.Password),
		}
	}

	client, err := loki.New(lc)
	if err != nil {
		return nil, nil, err
	}

	h := slogloki.Option{Level: level, Client: client}.NewLokiHandler()
	return h, client.Stop, nil
}
