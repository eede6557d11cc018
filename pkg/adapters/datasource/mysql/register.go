package mysql

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "mysql",
			DisplayName: "MySQL",
			Description: "MySQL 5.7+, MariaDB, Aurora MySQL",
		},
		SchemaDiscovererFactory: func(ctx context.Context, cfg datasource.Config, logger *zap.Logger) (datasource.SchemaDiscoverer, error) {
			return NewSchemaDiscoverer(ctx, cfg, logger)
		},
	})
}
