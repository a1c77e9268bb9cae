package sensors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectTempInput_PrefersTemp1Input(t *testing.T) {
	paths := []string{
		"/sys/class/block/sda/device/hwmon/hwmon1/temp2_input",
		"/sys/class/block/sda/device/hwmon/hwmon1/temp1_input",
		"/sys/class/block/sda/device/hwmon/hwmon1/temp3_input",
	}
	got := selectTempInput(paths)
	assert.Equal(t, "/sys/class/block/sda/device/hwmon/hwmon1/temp1_input", got)
}

func TestSelectTempInput_FallsBackToFirst(t *testing.T) {
	paths := []string{
		"/sys/class/block/sda/device/hwmon/hwmon1/temp2_input",
		"/sys/class/block/sda/device/hwmon/hwmon1/temp3_input",
	}
	got := selectTempInput(paths)
	assert.Equal(t, "/sys/class/block/sda/device/hwmon/hwmon1/temp2_input", got)
}

// buildAtaData builds a SMART READ DATA payload with one attribute in the first table slot
func buildAtaData(attrID byte, rawByte0 byte) []byte {
	data := make([]byte, 512)
	off := 2
	data[off] = attrID
	data[off+5] = rawByte0
	return data
}

func TestParseAtaSmartAttributes_Attr194(t *testing.T) {
	data := buildAtaData(194, 42)
	temp, err := parseAtaSmartAttributes(data, "/dev/sda")
	require.NoError(t, err)
	assert.Equal(t, float64(42000), temp)
}

func TestParseAtaSmartAttributes_Attr190(t *testing.T) {
	data := buildAtaData(190, 35)
	temp, err := parseAtaSmartAttributes(data, "/dev/sda")
	require.NoError(t, err)
	assert.Equal(t, float64(35000), temp)
}

func TestParseAtaSmartAttributes_NoTempAttr(t *testing.T) {
	data := make([]byte, 512)
	_, err := parseAtaSmartAttributes(data, "/dev/sda")
	assert.ErrorIs(t, err, thermal.NewSensorReadError(thermal.NoData, nil))
	assert.Contains(t, err.Error(), "no temperature attribute")
}

func TestParseAtaSmartAttributes_TruncatedData(t *testing.T) {
	data := make([]byte, 10)
	_, err := parseAtaSmartAttributes(data, "/dev/sda")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no temperature attribute")
}

func writeTempFile(t *testing.T, dir, rel string, value string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(value), 0o644))
}

func makeSymlink(t *testing.T, dir, rel, target string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.Symlink(target, path))
}

func TestReadDiskTempFromSysfsAt_SATA(t *testing.T) {
	tmp := t.TempDir()
	writeTempFile(t, tmp, "class/block/sda/device/hwmon/hwmon1/temp1_input", "38000\n")

	temp, err := readDiskTempFromSysfsAt(tmp, "sda")
	require.NoError(t, err)
	assert.Equal(t, float64(38000), temp)
}

func TestReadDiskTempFromSysfsAt_NVMe(t *testing.T) {
	tmp := t.TempDir()
	writeTempFile(t, tmp, "class/nvme/nvme0/hwmon0/temp1_input", "45000\n")

	temp, err := readDiskTempFromSysfsAt(tmp, "nvme0n1")
	require.NoError(t, err)
	assert.Equal(t, float64(45000), temp)
}

func TestReadDiskTempFromSysfsAt_NotFound(t *testing.T) {
	tmp := t.TempDir()
	_, err := readDiskTempFromSysfsAt(tmp, "sda")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no sysfs hwmon temperature")
}

func TestResolveDeviceAt_RelativeViaByIdBase(t *testing.T) {
	tmp := t.TempDir()
	real := filepath.Join(tmp, "nvme0n1")
	require.NoError(t, os.WriteFile(real, nil, 0o644))
	makeSymlink(t, tmp, "dev/disk/by-id/nvme-Samsung_XXXX", real)

	got, err := resolveDeviceAt("nvme-Samsung_XXXX", tmp+"/dev", tmp+"/dev/disk/by-id")
	require.NoError(t, err)
	assert.Equal(t, real, got)
}

func TestResolveDeviceAt_RelativeNotFound(t *testing.T) {
	tmp := t.TempDir()
	_, err := resolveDeviceAt("nonexistent", tmp+"/dev", tmp+"/dev/disk/by-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve device")
}

func newDiskSensor(t *testing.T, device string) (*DiskSensor, string) {
	tmp := t.TempDir()
	return &DiskSensor{
		Config: configuration.SensorConfig{
			ID:   "nvme",
			Disk: &configuration.DiskSensorConfig{Device: device},
		},
		devBase:  tmp + "/dev",
		byIdBase: tmp + "/dev/disk/by-id",
		sysBase:  tmp + "/sys",
	}, tmp
}

func TestDiskSensor_ReadTemperature(t *testing.T) {
	// GIVEN
	sensor, tmp := newDiskSensor(t, "nvme0n1")
	writeTempFile(t, tmp, "dev/nvme0n1", "")
	writeTempFile(t, tmp, "sys/class/nvme/nvme0/hwmon3/temp1_input", "41850\n")

	// WHEN
	value, err := sensor.ReadTemperature()

	// THEN
	assert.NoError(t, err)
	assert.InDelta(t, 41.85, float64(value), 0.0001)
	assert.Equal(t, "Disk (nvme0n1)", sensor.GetLabel())
}

func TestDiskSensor_ReadTemperature_Absent(t *testing.T) {
	// GIVEN
	sensor, _ := newDiskSensor(t, "nvme0n1")

	// WHEN
	_, err := sensor.ReadTemperature()

	// THEN
	assert.True(t, thermal.IsNotPresent(err))
}
