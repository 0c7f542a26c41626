package vm

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// machineState is the JSON part of a snapshot.
type machineState struct {
	PC         int     `json:"pc"`
	Steps      int     `json:"steps"`
	Halted     bool    `json:"halted"`
	MemorySize int     `json:"memory_size"`
	Stack      []Value `json:"stack"`
}

// Snapshot serialises the machine state into a ZIP archive holding
// machine_state.json and memory.bin. The program itself is not included;
// Restore expects a machine loaded with the same program.
func (m *Machine) Snapshot() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := machineState{
		PC:         m.PC,
		Steps:      m.Steps,
		Halted:     m.Halted,
		MemorySize: len(m.Memory),
		Stack:      m.Stack,
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal machine_state: %w", err)
	}
	if err := writeZipEntry(zw, "machine_state.json", jsonData); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "memory.bin", m.Memory); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore applies a snapshot produced by Snapshot.
func (m *Machine) Restore(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "machine_state.json")
	if err != nil {
		return err
	}
	var state machineState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal machine_state: %w", err)
	}
	mem, err := readZipEntry(fileMap, "memory.bin")
	if err != nil {
		return err
	}
	if len(mem) != state.MemorySize {
		return fmt.Errorf("memory.bin holds %d bytes, state says %d", len(mem), state.MemorySize)
	}

	m.Memory = mem
	m.PC = state.PC
	m.Steps = state.Steps
	m.Halted = state.Halted
	m.Stack = state.Stack
	return nil
}

// SnapshotToFile writes the snapshot archive to path.
func (m *Machine) SnapshotToFile(path string) error {
	data, err := m.Snapshot()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreFromFile reads a snapshot archive from path and applies it.
func (m *Machine) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.Restore(data)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
