package store

import "fmt"

// CommitBatch replaces the derived rows of the batch's documents with the
// buffered rows, within a single transaction. Fake IDs are replaced by the
// real (positive) ones.
func (s *Store) CommitBatch(batch *BatchedStore) error {
	batch.mu.Lock()
	defer batch.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteDerivedTx(tx, batch.DocumentIDs); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	for i := range batch.Objects {
		if _, err := insertObjectTx(tx, &batch.Objects[i]); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}
	for i := range batch.References {
		if _, err := insertReferenceTx(tx, &batch.References[i]); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}
	for i := range batch.Warnings {
		if _, err := insertWarningTx(tx, &batch.Warnings[i]); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}
