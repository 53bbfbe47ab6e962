package collab

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"queryjam/internal/datagen"
	"queryjam/internal/models"
)

// CreateDatasetFromCSV ingests a CSV stream: the header row becomes the
// column list, every later row becomes one document in a fresh collection.
// Numeric and boolean cells are typed by inspection so filters like
// {"age": {"$gt": 30}} work without a schema. When sessionID is set the
// caller must be able to edit that session.
func (s *Service) CreateDatasetFromCSV(ctx context.Context, ownerID, sessionID int64, name, description string, r io.Reader) (*models.Dataset, error) {
	if sessionID > 0 {
		session, err := s.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !session.CanEdit(ownerID) {
			return nil, ErrAccessDenied
		}
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) == 0 {
		return nil, errors.New("csv has no columns")
	}
	columns := make([]models.Column, len(header))
	for i, h := range header {
		columns[i] = models.Column{Name: strings.TrimSpace(h)}
	}

	var docs []map[string]any
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		doc := make(map[string]any, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				break
			}
			doc[col.Name] = typeCell(record[i], &columns[i])
		}
		docs = append(docs, doc)
	}

	return s.createDataset(ctx, ownerID, sessionID, name, description, columns, docs)
}

// CreateSampleDataset seeds a dataset from one of the built-in generators.
// The kind names a generator: users, products, or sales.
func (s *Service) CreateSampleDataset(ctx context.Context, ownerID, sessionID int64, kind string) (*models.Dataset, error) {
	if sessionID > 0 {
		session, err := s.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if !session.CanEdit(ownerID) {
			return nil, ErrAccessDenied
		}
	}
	docs, columns, err := datagen.Generate(kind)
	if err != nil {
		return nil, err
	}
	name := "Sample " + strings.ToUpper(kind[:1]) + kind[1:]
	return s.createDataset(ctx, ownerID, sessionID, name, "generated sample data", columns, docs)
}

func (s *Service) createDataset(ctx context.Context, ownerID, sessionID int64, name, description string, columns []models.Column, docs []map[string]any) (*models.Dataset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("dataset name is required")
	}

	collection, err := newCollectionName()
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateCollection(ctx, collection); err != nil {
		return nil, err
	}
	if len(docs) > 0 {
		if err := s.store.InsertDocs(ctx, collection, docs); err != nil {
			s.store.DropCollection(ctx, collection)
			return nil, err
		}
	}

	columnsJSON, err := json.Marshal(columns)
	if err != nil {
		return nil, fmt.Errorf("marshal columns: %w", err)
	}
	now := time.Now().UTC()
	var sessionVal any
	if sessionID > 0 {
		sessionVal = sessionID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (name, description, owner_id, session_id, collection_name, columns_json, row_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		name, description, ownerID, sessionVal, collection, string(columnsJSON), len(docs), now)
	if err != nil {
		s.store.DropCollection(ctx, collection)
		return nil, fmt.Errorf("insert dataset: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("dataset id: %w", err)
	}
	return &models.Dataset{
		ID:             id,
		Name:           name,
		Description:    description,
		OwnerID:        ownerID,
		SessionID:      sessionID,
		CollectionName: collection,
		Columns:        columns,
		RowCount:       int64(len(docs)),
		CreatedAt:      now,
	}, nil
}

// ListDatasets returns datasets scoped to a session, or a user's own
// datasets when sessionID is zero.
func (s *Service) ListDatasets(ctx context.Context, sessionID, ownerID int64) ([]models.Dataset, error) {
	var (
		rows *sql.Rows
		err  error
	)
	const cols = `id, name, description, owner_id, session_id, collection_name, columns_json, row_count, created_at`
	if sessionID > 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+cols+` FROM datasets WHERE session_id = ? ORDER BY created_at DESC`, sessionID)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT `+cols+` FROM datasets WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	datasets := []models.Dataset{}
	for rows.Next() {
		ds, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *ds)
	}
	return datasets, rows.Err()
}

// GetDataset loads one dataset record.
func (s *Service) GetDataset(ctx context.Context, datasetID int64) (*models.Dataset, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id, session_id, collection_name, columns_json, row_count, created_at
		 FROM datasets WHERE id = ?`, datasetID)
	ds, err := scanDataset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDatasetNotFound
		}
		return nil, err
	}
	return ds, nil
}

// DeleteDataset removes the record and drops the backing collection. Only
// the dataset owner may delete.
func (s *Service) DeleteDataset(ctx context.Context, userID, datasetID int64) error {
	ds, err := s.GetDataset(ctx, datasetID)
	if err != nil {
		return err
	}
	if ds.OwnerID != userID {
		return ErrForbidden
	}
	if err := s.store.DropCollection(ctx, ds.CollectionName); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, datasetID); err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	return nil
}

func scanDataset(row rowScanner) (*models.Dataset, error) {
	var (
		ds          models.Dataset
		sessionID   sql.NullInt64
		columnsJSON string
	)
	err := row.Scan(&ds.ID, &ds.Name, &ds.Description, &ds.OwnerID, &sessionID,
		&ds.CollectionName, &columnsJSON, &ds.RowCount, &ds.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan dataset: %w", err)
	}
	ds.SessionID = sessionID.Int64
	if err := json.Unmarshal([]byte(columnsJSON), &ds.Columns); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	return &ds, nil
}

// typeCell converts a CSV cell to the most specific value it parses as and
// records the widest type seen for the column.
func typeCell(cell string, col *models.Column) any {
	trimmed := strings.TrimSpace(cell)
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && trimmed != "" {
		if col.Type == "" || col.Type == "number" {
			col.Type = "number"
		} else {
			col.Type = "string"
		}
		return n
	}
	switch strings.ToLower(trimmed) {
	case "true":
		markType(col, "boolean")
		return true
	case "false":
		markType(col, "boolean")
		return false
	}
	markType(col, "string")
	return cell
}

func markType(col *models.Column, t string) {
	if col.Type == "" {
		col.Type = t
	} else if col.Type != t {
		col.Type = "string"
	}
}

func newCollectionName() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate collection name: %w", err)
	}
	return fmt.Sprintf("dataset_%d_%s", time.Now().UnixNano(), hex.EncodeToString(buf)), nil
}
