package storage

import (
	"encoding/json"
	"errors"
)

// CurrentSchemaVersion and CurrentCodecVersion are stamped onto every record
// this package encodes, so a SQLiteStore reading rows written by an older
// binary can detect the mismatch instead of silently misinterpreting them.
const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

// ErrVersionMismatch is returned by the Decode* functions when a record's
// stamped versions do not match the versions this build writes.
var ErrVersionMismatch = errors.New("storage: record version mismatch")

func stampRun(run RunRecord) RunRecord {
	run.SchemaVersion = CurrentSchemaVersion
	run.CodecVersion = CurrentCodecVersion
	return run
}

func stampChampion(snap ChampionSnapshot) ChampionSnapshot {
	snap.SchemaVersion = CurrentSchemaVersion
	snap.CodecVersion = CurrentCodecVersion
	return snap
}

func stampMigration(evt MigrationEvent) MigrationEvent {
	evt.SchemaVersion = CurrentSchemaVersion
	evt.CodecVersion = CurrentCodecVersion
	return evt
}

func checkVersions(schemaVersion, codecVersion int) error {
	if schemaVersion != CurrentSchemaVersion || codecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}

// EncodeRun serializes a RunRecord, stamping the current schema/codec
// versions before encoding.
func EncodeRun(run RunRecord) ([]byte, error) {
	return json.Marshal(stampRun(run))
}

// DecodeRun deserializes a RunRecord and rejects a version mismatch.
func DecodeRun(data []byte) (RunRecord, error) {
	var run RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return RunRecord{}, err
	}
	if err := checkVersions(run.SchemaVersion, run.CodecVersion); err != nil {
		return RunRecord{}, err
	}
	return run, nil
}

// EncodeChampionHistory serializes a champion snapshot slice.
func EncodeChampionHistory(snaps []ChampionSnapshot) ([]byte, error) {
	stamped := make([]ChampionSnapshot, len(snaps))
	for i, s := range snaps {
		stamped[i] = stampChampion(s)
	}
	return json.Marshal(stamped)
}

// DecodeChampionHistory deserializes a champion snapshot slice, rejecting
// any element with a version mismatch.
func DecodeChampionHistory(data []byte) ([]ChampionSnapshot, error) {
	var snaps []ChampionSnapshot
	if err := json.Unmarshal(data, &snaps); err != nil {
		return nil, err
	}
	for _, s := range snaps {
		if err := checkVersions(s.SchemaVersion, s.CodecVersion); err != nil {
			return nil, err
		}
	}
	return snaps, nil
}

// EncodeMigrationLog serializes a migration event slice.
func EncodeMigrationLog(events []MigrationEvent) ([]byte, error) {
	stamped := make([]MigrationEvent, len(events))
	for i, e := range events {
		stamped[i] = stampMigration(e)
	}
	return json.Marshal(stamped)
}

// DecodeMigrationLog deserializes a migration event slice, rejecting any
// element with a version mismatch.
func DecodeMigrationLog(data []byte) ([]MigrationEvent, error) {
	var events []MigrationEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, err
	}
	for _, e := range events {
		if err := checkVersions(e.SchemaVersion, e.CodecVersion); err != nil {
			return nil, err
		}
	}
	return events, nil
}
