package hwmon

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/util"
	"github.com/md14454/gosensors"
)

const (
	BusTypeIsa  = 1
	BusTypePci  = 2
	BusTypeAcpi = 5
)

var (
	channelRegex  = regexp.MustCompile(`^[a-z]+(\d+)_input$`)
	platformRegex = regexp.MustCompile(`/platform/([^/]+)/`)
)

// TempInput is a temperature input of a hwmon chip
type TempInput struct {
	Label string  `json:"label"`
	Index int     `json:"index"`
	Path  string  `json:"path"`
	Max   int     `json:"max"`
	Value float64 `json:"value"`
}

// FanOutput is a fan header of a hwmon chip
type FanOutput struct {
	Label     string  `json:"label"`
	Index     int     `json:"index"`
	RpmInput  string  `json:"rpmInput"`
	PwmOutput string  `json:"pwmOutput"`
	Rpm       float64 `json:"rpm"`
}

type HwMonController struct {
	Name     string
	DType    string
	Modalias string
	Platform string
	Path     string

	Fans    []FanOutput
	Sensors []TempInput
}

func GetChips() []*HwMonController {
	gosensors.Init()
	defer gosensors.Cleanup()
	chips := gosensors.GetDetectedChips()

	var list []*HwMonController

	for i := 0; i < len(chips); i++ {
		chip := chips[i]

		var identifier = computeIdentifier(chip)
		dType := util.GetDeviceType(chip.Path)
		modalias := util.GetDeviceModalias(chip.Path)
		platform := findPlatform(chip.Path)
		if len(platform) <= 0 {
			platform = identifier
		}

		fansList := GetFans(chip)
		sensorsList := GetTempSensors(chip)

		if len(fansList) <= 0 && len(sensorsList) <= 0 {
			continue
		}

		c := &HwMonController{
			Name:     identifier,
			DType:    dType,
			Modalias: modalias,
			Platform: platform,
			Path:     chip.Path,
			Fans:     fansList,
			Sensors:  sensorsList,
		}
		list = append(list, c)
	}

	return list
}

func GetTempSensors(chip gosensors.Chip) []TempInput {
	var sensorList []TempInput

	features := chip.GetFeatures()
	for j := 0; j < len(features); j++ {
		feature := features[j]

		if feature.Type != gosensors.FeatureTypeTemp {
			continue
		}

		subfeatures := feature.GetSubFeatures()
		inputSubFeature, ok := getSubFeature(subfeatures, gosensors.SubFeatureTypeTempInput)
		if !ok {
			continue
		}

		max := -1
		if maxSubFeature, ok := getSubFeature(subfeatures, gosensors.SubFeatureTypeTempMax); ok {
			max = int(maxSubFeature.GetValue())
		}

		sensorList = append(sensorList, TempInput{
			Label: util.GetLabel(chip.Path, inputSubFeature.Name),
			Index: len(sensorList) + 1,
			Path:  filepath.Join(chip.Path, inputSubFeature.Name),
			Max:   max,
			Value: inputSubFeature.GetValue(),
		})
	}

	return sensorList
}

func GetFans(chip gosensors.Chip) []FanOutput {
	var fanList []FanOutput

	features := chip.GetFeatures()
	for j := 0; j < len(features); j++ {
		feature := features[j]

		if feature.Type != gosensors.FeatureTypeFan {
			continue
		}

		subfeatures := feature.GetSubFeatures()
		inputSubFeature, ok := getSubFeature(subfeatures, gosensors.SubFeatureTypeFanInput)
		if !ok {
			continue
		}

		fanList = append(fanList, FanOutput{
			Label:     util.GetLabel(chip.Path, inputSubFeature.Name),
			Index:     len(fanList) + 1,
			RpmInput:  filepath.Join(chip.Path, inputSubFeature.Name),
			PwmOutput: pwmOutputFor(chip.Path, inputSubFeature.Name),
			Rpm:       inputSubFeature.GetValue(),
		})
	}

	return fanList
}

// pwmOutputFor returns the pwmN attribute that belongs to fanN_input, if it exists
func pwmOutputFor(devicePath string, rpmInput string) string {
	channel, ok := inputChannel(rpmInput)
	if !ok {
		return ""
	}
	pwmOutput := filepath.Join(devicePath, fmt.Sprintf("pwm%d", channel))
	if _, err := os.Stat(pwmOutput); err != nil {
		return ""
	}
	return pwmOutput
}

func inputChannel(input string) (int, bool) {
	match := channelRegex.FindStringSubmatch(filepath.Base(input))
	if match == nil {
		return 0, false
	}
	channel, err := strconv.Atoi(match[1])
	return channel, err == nil
}

func getSubFeature(subfeatures []gosensors.SubFeature, input gosensors.SubFeatureType) (gosensors.SubFeature, bool) {
	for _, a := range subfeatures {
		if a.Type == input {
			return a, true
		}
	}
	return gosensors.SubFeature{}, false
}

func computeIdentifier(chip gosensors.Chip) (name string) {
	name = chip.Prefix

	devicePath := chip.Path
	if len(name) <= 0 {
		name = util.GetDeviceName(devicePath)
	}

	if len(name) <= 0 {
		_, name = filepath.Split(devicePath)
	}

	identifier := name
	switch chip.Bus.Type {
	case BusTypeIsa:
		identifier = fmt.Sprintf("%s-isa-%d%03x", identifier, chip.Bus.Nr, chip.Addr)
	case BusTypePci:
		identifier = fmt.Sprintf("%s-pci-%d%03x", identifier, chip.Bus.Nr, chip.Addr)
	case BusTypeAcpi:
		identifier = fmt.Sprintf("%s-acpi-%d", identifier, chip.Bus.Nr)
	}

	return identifier
}

func findPlatform(devicePath string) string {
	match := platformRegex.FindStringSubmatch(devicePath)
	if match == nil {
		return ""
	}
	return match[1]
}

func matchingControllers(controllers []*HwMonController, platform string) ([]*HwMonController, error) {
	regex, err := regexp.Compile(platform)
	if err != nil {
		return nil, fmt.Errorf("invalid platform pattern '%s': %w", platform, err)
	}
	var result []*HwMonController
	for _, c := range controllers {
		if regex.MatchString(c.Platform) || regex.MatchString(c.Name) {
			result = append(result, c)
		}
	}
	return result, nil
}

// UpdateSensorConfigFromHwMonControllers resolves the temp*_input path of a hwmon sensor config
func UpdateSensorConfigFromHwMonControllers(controllers []*HwMonController, config *configuration.SensorConfig) error {
	candidates, err := matchingControllers(controllers, config.HwMon.Platform)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		for _, input := range c.Sensors {
			if input.Index == config.HwMon.Index {
				config.HwMon.TempInput = input.Path
				return nil
			}
		}
	}
	return fmt.Errorf("no hwmon sensor matched sensor config: %s", config.ID)
}

// UpdateFanConfigFromHwMonControllers resolves the pwm and rpm paths of a hwmon fan config
func UpdateFanConfigFromHwMonControllers(controllers []*HwMonController, config *configuration.FanConfig) error {
	candidates, err := matchingControllers(controllers, config.HwMon.Platform)
	if err != nil {
		return err
	}
	for _, c := range candidates {
		for _, output := range c.Fans {
			if output.Index != config.HwMon.Index {
				continue
			}
			if len(output.PwmOutput) <= 0 {
				return fmt.Errorf("hwmon fan %s of %s has no pwm output", strings.TrimSpace(output.Label), c.Name)
			}
			config.HwMon.PwmOutput = output.PwmOutput
			config.HwMon.RpmInput = output.RpmInput
			return nil
		}
	}
	return fmt.Errorf("no hwmon fan matched fan config: %s", config.ID)
}
