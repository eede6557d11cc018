package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/relgraph/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "sqlserver",
			DisplayName: "Microsoft SQL Server",
			Description: "SQL Server 2017+, Azure SQL",
		},
		SchemaDiscovererFactory: func(ctx context.Context, cfg datasource.Config, logger *zap.Logger) (datasource.SchemaDiscoverer, error) {
			return NewSchemaDiscoverer(ctx, cfg, logger)
		},
	})
}
