package datasource

// TableMetadata describes one user table.
type TableMetadata struct {
	TableName string `json:"table_name"`
	RowCount  int64  `json:"row_count"` // estimate on engines that keep one
}

// ColumnMetadata describes one column of a table.
type ColumnMetadata struct {
	ColumnName      string `json:"column_name"`
	DataType        string `json:"data_type"`
	ColumnType      string `json:"column_type,omitempty"` // engine-native type, e.g. "tinyint(1)"
	IsNullable      bool   `json:"is_nullable"`
	IsPrimaryKey    bool   `json:"is_primary_key"`
	OrdinalPosition int    `json:"ordinal_position"`
}

// ForeignKeyMetadata describes one column of a declared FK constraint.
type ForeignKeyMetadata struct {
	ConstraintName string `json:"constraint_name"`
	SourceTable    string `json:"source_table"`
	SourceColumn   string `json:"source_column"`
	TargetTable    string `json:"target_table"`
	TargetColumn   string `json:"target_column"`
}

// ColumnStats holds full-table counts for one column.
type ColumnStats struct {
	TotalCount    int64 `json:"total_count"`
	NullCount     int64 `json:"null_count"`
	DistinctCount int64 `json:"distinct_count"`
}

// NullRatio returns NullCount/TotalCount, or 0 for an empty table.
func (s *ColumnStats) NullRatio() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.NullCount) / float64(s.TotalCount)
}
