package signals

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSysfs creates pre-exported gpio directories so export is a no-op
func fakeSysfs(t *testing.T, pins Pins) string {
	t.Helper()
	root := t.TempDir()
	for _, pin := range pins {
		dir := filepath.Join(root, "gpio"+strconv.Itoa(pin))
		require.NoError(t, os.MkdirAll(dir, 0755))
		for _, attr := range []string{"direction", "value"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, attr), []byte("?"), 0644))
		}
	}
	return root
}

func readAttr(t *testing.T, root string, pin int, attr string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, "gpio"+strconv.Itoa(pin), attr))
	require.NoError(t, err)
	return string(data)
}

func TestSysfs_Init(t *testing.T) {
	pins := DefaultPins()
	root := fakeSysfs(t, pins)
	s := &Sysfs{Root: root, Pins: pins}

	require.NoError(t, s.Init())

	for _, ch := range Outputs {
		assert.Equal(t, "out", readAttr(t, root, pins[ch], "direction"), ch.String())
		assert.Equal(t, "0", readAttr(t, root, pins[ch], "value"), ch.String())
	}
	assert.Equal(t, "in", readAttr(t, root, pins[APButton], "direction"))
}

func TestSysfs_SetLevel(t *testing.T) {
	pins := DefaultPins()
	root := fakeSysfs(t, pins)
	s := &Sysfs{Root: root, Pins: pins}

	s.SetLevel(WiFiLED, true)
	assert.Equal(t, "1", readAttr(t, root, 32, "value"))

	on, err := s.Read(WiFiLED)
	require.NoError(t, err)
	assert.True(t, on)

	s.SetLevel(WiFiLED, false)
	assert.Equal(t, "0", readAttr(t, root, 32, "value"))
}

func TestSysfs_ReadUnconfigured(t *testing.T) {
	s := &Sysfs{Root: t.TempDir(), Pins: Pins{}}

	_, err := s.Read(APButton)
	assert.Error(t, err)
}

func TestSysfs_SetLevelMissingPinIsSilent(t *testing.T) {
	s := &Sysfs{Root: t.TempDir(), Pins: Pins{}}
	assert.NotPanics(t, func() { s.SetLevel(Relay, true) })
}

func TestSysfs_ExportWritesPinNumber(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "export"), nil, 0644))
	s := &Sysfs{Root: root}

	require.NoError(t, s.export(17))
	data, err := os.ReadFile(filepath.Join(root, "export"))
	require.NoError(t, err)
	assert.Equal(t, "17", string(data))
}

func TestChannelString(t *testing.T) {
	assert.Equal(t, "wifi-led", WiFiLED.String())
	assert.Equal(t, "Channel(99)", Channel(99).String())
}

func TestParseChannel(t *testing.T) {
	for _, ch := range []Channel{Relay, Buzzer, WiFiLED, APButton} {
		got, err := ParseChannel(ch.String())
		require.NoError(t, err)
		assert.Equal(t, ch, got)
	}

	_, err := ParseChannel("siren")
	assert.Error(t, err)
}
