package sim

import (
	"encoding/json"
	"os"

	"farmwatch/internal/telemetry"
)

// FileWriter writes telemetry, mission events and captures to JSONL files.
type FileWriter struct {
	teleFile    *os.File
	missionFile *os.File
	captureFile *os.File
	teleEnc     *json.Encoder
	missionEnc  *json.Encoder
	captureEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. missionPath or capturePath may be empty to skip those logs.
func NewFileWriter(telemetryPath, missionPath, capturePath string) (*FileWriter, error) {
	tf, err := os.Create(telemetryPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{teleFile: tf, teleEnc: json.NewEncoder(tf)}
	if missionPath != "" {
		mf, err := os.Create(missionPath)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		fw.missionFile = mf
		fw.missionEnc = json.NewEncoder(mf)
	}
	if capturePath != "" {
		cf, err := os.Create(capturePath)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		fw.captureFile = cf
		fw.captureEnc = json.NewEncoder(cf)
	}
	return fw, nil
}

// Write logs a single telemetry row.
func (f *FileWriter) Write(row telemetry.TelemetryRow) error {
	return f.teleEnc.Encode(row)
}

// WriteBatch logs multiple telemetry rows.
func (f *FileWriter) WriteBatch(rows []telemetry.TelemetryRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteMissionEvent logs a mission event, if enabled.
func (f *FileWriter) WriteMissionEvent(row telemetry.MissionEventRow) error {
	if f.missionEnc == nil {
		return nil
	}
	return f.missionEnc.Encode(row)
}

// WriteCapture logs a map capture, if enabled.
func (f *FileWriter) WriteCapture(row telemetry.CaptureRow) error {
	if f.captureEnc == nil {
		return nil
	}
	return f.captureEnc.Encode(row)
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	for _, file := range []*os.File{f.teleFile, f.missionFile, f.captureFile} {
		if file == nil {
			continue
		}
		if e := file.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
