package sensors

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/util"
	"golang.org/x/sys/unix"
)

const (
	hdioDriveCmd     = 0x031f // ioctl: ATA drive command
	ataOpSmart       = 0xb0   // WIN_SMART ATA command
	smartReadData    = 0xd0   // SMART READ DATA subcommand
	smartAttrAirflow = 190    // SMART attribute: airflow temp
	smartAttrTemp    = 194    // SMART attribute: drive temp
)

// DiskSensor reads the temperature of a drive, a missing drive is reported
// as a bus error with CodeNoDevice so that removable inputs become inactive.
type DiskSensor struct {
	Config configuration.SensorConfig `json:"configuration"`

	devBase  string
	byIdBase string
	sysBase  string
}

func (s *DiskSensor) GetId() string {
	return s.Config.ID
}

func (s *DiskSensor) GetLabel() string {
	return fmt.Sprintf("Disk (%s)", s.Config.Disk.Device)
}

func (s *DiskSensor) GetConfig() configuration.SensorConfig {
	return s.Config
}

func (s *DiskSensor) ReadTemperature() (thermal.Celsius, error) {
	resolved, err := resolveDeviceAt(s.Config.Disk.Device, orDefault(s.devBase, "/dev"), orDefault(s.byIdBase, "/dev/disk/by-id"))
	if err != nil {
		return 0, thermal.ClassifySystemError(err)
	}
	deviceName := filepath.Base(resolved)

	// sysfs hwmon (drivetemp for SATA, nvme-hwmon for NVMe)
	if millidegrees, err := readDiskTempFromSysfsAt(orDefault(s.sysBase, "/sys"), deviceName); err == nil {
		return fromMillidegrees(millidegrees)
	}

	// ATA SMART ioctl (SATA/IDE only)
	millidegrees, err := readAtaSmartTemp(resolved)
	if err != nil {
		return 0, err
	}
	return fromMillidegrees(millidegrees)
}

func orDefault(value, fallback string) string {
	if len(value) > 0 {
		return value
	}
	return fallback
}

func resolveDeviceAt(device, devBase, byIdBase string) (string, error) {
	if strings.HasPrefix(device, "/") {
		resolved, err := filepath.EvalSymlinks(device)
		if err != nil {
			return "", fmt.Errorf("failed to resolve device %s: %w", device, err)
		}
		return resolved, nil
	}

	// covers "sda", "nvme0n1" and "disk/by-id/..."
	devPath := devBase + "/" + device
	if resolved, err := filepath.EvalSymlinks(devPath); err == nil {
		return resolved, nil
	}

	// bare ids like "ata-..." or "nvme-..."
	byIdPath := byIdBase + "/" + device
	if resolved, err := filepath.EvalSymlinks(byIdPath); err == nil {
		return resolved, nil
	}

	_, err := filepath.EvalSymlinks(devPath)
	return "", fmt.Errorf("failed to resolve device %s: %w", device, err)
}

func readDiskTempFromSysfsAt(sysBase, deviceName string) (float64, error) {
	patterns := []string{
		fmt.Sprintf("%s/class/block/%s/device/hwmon/hwmon*/temp*_input", sysBase, deviceName),
	}
	// nvme0n1 -> nvme0
	if strings.HasPrefix(deviceName, "nvme") {
		ctrl := deviceName
		if idx := strings.Index(deviceName[4:], "n"); idx >= 0 {
			ctrl = deviceName[:4+idx]
		}
		patterns = append(patterns,
			fmt.Sprintf("%s/class/nvme/%s/hwmon*/temp*_input", sysBase, ctrl))
	}
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil || len(matches) == 0 {
			continue
		}
		path := selectTempInput(matches)
		millidegrees, err := util.ReadIntFromFile(path)
		if err != nil {
			continue
		}
		return float64(millidegrees), nil
	}
	return 0, fmt.Errorf("no sysfs hwmon temperature for %s", deviceName)
}

// selectTempInput prefers temp1_input (composite/device temperature)
func selectTempInput(paths []string) string {
	for _, p := range paths {
		if strings.HasSuffix(p, "temp1_input") {
			return p
		}
	}
	return paths[0]
}

// readAtaSmartTemp reads the temperature in millidegrees using the HDIO_DRIVE_CMD ioctl
func readAtaSmartTemp(device string) (float64, error) {
	f, err := os.Open(device)
	if err != nil {
		return 0, thermal.ClassifySystemError(err)
	}
	defer f.Close()

	buf := make([]byte, 4+512)
	buf[0] = ataOpSmart
	buf[1] = 1 // one sector of data
	buf[2] = smartReadData
	buf[3] = 0

	_, _, errno := unix.Syscall(
		unix.SYS_IOCTL,
		f.Fd(),
		hdioDriveCmd,
		uintptr(unsafe.Pointer(&buf[0])),
	)
	if errno != 0 {
		return 0, thermal.ClassifySystemError(fmt.Errorf("HDIO_DRIVE_CMD ioctl on %s: %w", device, errno))
	}

	return parseAtaSmartAttributes(buf[4:], device)
}

// parseAtaSmartAttributes returns the temperature in millidegrees from the
// 512 byte SMART READ DATA payload.
func parseAtaSmartAttributes(data []byte, device string) (float64, error) {
	// offset 2: attribute table, 30 entries of 12 bytes
	// [id(1), flags(2), current(1), worst(1), raw(6), reserved(1)]
	for i := 0; i < 30; i++ {
		off := 2 + i*12
		if off+12 > len(data) {
			break
		}
		id := data[off]
		if id == smartAttrTemp || id == smartAttrAirflow {
			return float64(data[off+5]) * 1000, nil
		}
	}
	return 0, thermal.NewSensorReadError(thermal.NoData, fmt.Errorf("no temperature attribute in SMART data for %s", device))
}
