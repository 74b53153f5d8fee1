// Package obis names the telegram lines a specification can match.
//
// Each Field carries the canonical export name and a default line pattern.
// Patterns are anchored at the start of a single telegram line (without CRLF)
// and end at the first value group.
package obis

// Field is the canonical name of a parsed telegram field.
type Field string

func (f Field) String() string {
	return string(f)
}

// Pattern returns the default line pattern for the field, or "" if unknown.
func (f Field) Pattern() string {
	return patterns[f]
}

const (
	P1MessageHeader                      Field = "P1_MESSAGE_HEADER"
	P1MessageTimestamp                   Field = "P1_MESSAGE_TIMESTAMP"
	ElectricityImportedTotal             Field = "ELECTRICITY_IMPORTED_TOTAL"
	ElectricityUsedTariff1               Field = "ELECTRICITY_USED_TARIFF_1"
	ElectricityUsedTariff2               Field = "ELECTRICITY_USED_TARIFF_2"
	ElectricityUsedTariff3               Field = "ELECTRICITY_USED_TARIFF_3"
	ElectricityUsedTariff4               Field = "ELECTRICITY_USED_TARIFF_4"
	ElectricityExportedTotal             Field = "ELECTRICITY_EXPORTED_TOTAL"
	ElectricityDeliveredTariff1          Field = "ELECTRICITY_DELIVERED_TARIFF_1"
	ElectricityDeliveredTariff2          Field = "ELECTRICITY_DELIVERED_TARIFF_2"
	ElectricityDeliveredTariff3          Field = "ELECTRICITY_DELIVERED_TARIFF_3"
	ElectricityDeliveredTariff4          Field = "ELECTRICITY_DELIVERED_TARIFF_4"
	CurrentReactiveImported              Field = "CURRENT_REACTIVE_IMPORTED"
	ElectricityReactiveImportedTotal     Field = "ELECTRICITY_REACTIVE_IMPORTED_TOTAL"
	ElectricityReactiveImportedTariff1   Field = "ELECTRICITY_REACTIVE_IMPORTED_TARIFF_1"
	ElectricityReactiveImportedTariff2   Field = "ELECTRICITY_REACTIVE_IMPORTED_TARIFF_2"
	CurrentReactiveExported              Field = "CURRENT_REACTIVE_EXPORTED"
	ElectricityReactiveExportedTotal     Field = "ELECTRICITY_REACTIVE_EXPORTED_TOTAL"
	ElectricityReactiveExportedTariff1   Field = "ELECTRICITY_REACTIVE_EXPORTED_TARIFF_1"
	ElectricityReactiveExportedTariff2   Field = "ELECTRICITY_REACTIVE_EXPORTED_TARIFF_2"
	ElectricityActiveTariff              Field = "ELECTRICITY_ACTIVE_TARIFF"
	EquipmentIdentifier                  Field = "EQUIPMENT_IDENTIFIER"
	CurrentElectricityUsage              Field = "CURRENT_ELECTRICITY_USAGE"
	CurrentElectricityDelivery           Field = "CURRENT_ELECTRICITY_DELIVERY"
	LongPowerFailureCount                Field = "LONG_POWER_FAILURE_COUNT"
	ShortPowerFailureCount               Field = "SHORT_POWER_FAILURE_COUNT"
	PowerEventFailureLog                 Field = "POWER_EVENT_FAILURE_LOG"
	VoltageSagL1Count                    Field = "VOLTAGE_SAG_L1_COUNT"
	VoltageSagL2Count                    Field = "VOLTAGE_SAG_L2_COUNT"
	VoltageSagL3Count                    Field = "VOLTAGE_SAG_L3_COUNT"
	VoltageSwellL1Count                  Field = "VOLTAGE_SWELL_L1_COUNT"
	VoltageSwellL2Count                  Field = "VOLTAGE_SWELL_L2_COUNT"
	VoltageSwellL3Count                  Field = "VOLTAGE_SWELL_L3_COUNT"
	InstantaneousVoltageL1               Field = "INSTANTANEOUS_VOLTAGE_L1"
	InstantaneousVoltageL2               Field = "INSTANTANEOUS_VOLTAGE_L2"
	InstantaneousVoltageL3               Field = "INSTANTANEOUS_VOLTAGE_L3"
	InstantaneousCurrentL1               Field = "INSTANTANEOUS_CURRENT_L1"
	InstantaneousCurrentL2               Field = "INSTANTANEOUS_CURRENT_L2"
	InstantaneousCurrentL3               Field = "INSTANTANEOUS_CURRENT_L3"
	FuseThresholdL1                      Field = "FUSE_THRESHOLD_L1"
	FuseThresholdL2                      Field = "FUSE_THRESHOLD_L2"
	FuseThresholdL3                      Field = "FUSE_THRESHOLD_L3"
	TextMessageCode                      Field = "TEXT_MESSAGE_CODE"
	TextMessage                          Field = "TEXT_MESSAGE"
	DeviceType                           Field = "DEVICE_TYPE"
	InstantaneousActivePowerL1Positive   Field = "INSTANTANEOUS_ACTIVE_POWER_L1_POSITIVE"
	InstantaneousActivePowerL2Positive   Field = "INSTANTANEOUS_ACTIVE_POWER_L2_POSITIVE"
	InstantaneousActivePowerL3Positive   Field = "INSTANTANEOUS_ACTIVE_POWER_L3_POSITIVE"
	InstantaneousActivePowerL1Negative   Field = "INSTANTANEOUS_ACTIVE_POWER_L1_NEGATIVE"
	InstantaneousActivePowerL2Negative   Field = "INSTANTANEOUS_ACTIVE_POWER_L2_NEGATIVE"
	InstantaneousActivePowerL3Negative   Field = "INSTANTANEOUS_ACTIVE_POWER_L3_NEGATIVE"
	InstantaneousReactivePowerL1Positive Field = "INSTANTANEOUS_REACTIVE_POWER_L1_POSITIVE"
	InstantaneousReactivePowerL1Negative Field = "INSTANTANEOUS_REACTIVE_POWER_L1_NEGATIVE"
	InstantaneousReactivePowerL2Positive Field = "INSTANTANEOUS_REACTIVE_POWER_L2_POSITIVE"
	InstantaneousReactivePowerL2Negative Field = "INSTANTANEOUS_REACTIVE_POWER_L2_NEGATIVE"
	InstantaneousReactivePowerL3Positive Field = "INSTANTANEOUS_REACTIVE_POWER_L3_POSITIVE"
	InstantaneousReactivePowerL3Negative Field = "INSTANTANEOUS_REACTIVE_POWER_L3_NEGATIVE"
	EquipmentIdentifierGas               Field = "EQUIPMENT_IDENTIFIER_GAS"
	HourlyGasMeterReading                Field = "HOURLY_GAS_METER_READING"
	GasMeterReading                      Field = "GAS_METER_READING"
	ActualTresholdElectricity            Field = "ACTUAL_TRESHOLD_ELECTRICITY"
	ActualSwitchPosition                 Field = "ACTUAL_SWITCH_POSITION"
	ValvePositionGas                     Field = "VALVE_POSITION_GAS"

	// Sub-meters attached over M-Bus (EN 13757-3 device types, e.g. gas = 3, water = 7).
	MbusDeviceType          Field = "MBUS_DEVICE_TYPE"
	MbusEquipmentIdentifier Field = "MBUS_EQUIPMENT_IDENTIFIER"
	MbusValvePosition       Field = "MBUS_VALVE_POSITION"
	MbusMeterReading        Field = "MBUS_METER_READING"

	BelgiumVersionInformation     Field = "BELGIUM_VERSION_INFORMATION"
	BelgiumEquipmentIdentifier    Field = "BELGIUM_EQUIPMENT_IDENTIFIER"
	BelgiumCurrentAverageDemand   Field = "BELGIUM_CURRENT_AVERAGE_DEMAND"
	BelgiumMaximumDemandMonth     Field = "BELGIUM_MAXIMUM_DEMAND_MONTH"
	BelgiumMaximumDemand13Months  Field = "BELGIUM_MAXIMUM_DEMAND_13_MONTHS"
	LuxembourgEquipmentIdentifier Field = "LUXEMBOURG_EQUIPMENT_IDENTIFIER"

	Q3DEquipmentIdentifier   Field = "Q3D_EQUIPMENT_IDENTIFIER"
	Q3DEquipmentState        Field = "Q3D_EQUIPMENT_STATE"
	Q3DEquipmentSerialnumber Field = "Q3D_EQUIPMENT_SERIALNUMBER"

	CosemLogicalDeviceName        Field = "COSEM_LOGICAL_DEVICE_NAME"
	EquipmentSerialNumber         Field = "EQUIPMENT_SERIAL_NUMBER"
	ElectricityReactiveTotalQ1    Field = "ELECTRICITY_REACTIVE_TOTAL_Q1"
	ElectricityReactiveTotalQ2    Field = "ELECTRICITY_REACTIVE_TOTAL_Q2"
	ElectricityReactiveTotalQ3    Field = "ELECTRICITY_REACTIVE_TOTAL_Q3"
	ElectricityReactiveTotalQ4    Field = "ELECTRICITY_REACTIVE_TOTAL_Q4"
	ElectricityCombined           Field = "ELECTRICITY_COMBINED"
	InstantaneousPowerFactorTotal Field = "INSTANTANEOUS_POWER_FACTOR_TOTAL"
	InstantaneousPowerFactorL1    Field = "INSTANTANEOUS_POWER_FACTOR_L1"
	InstantaneousPowerFactorL2    Field = "INSTANTANEOUS_POWER_FACTOR_L2"
	InstantaneousPowerFactorL3    Field = "INSTANTANEOUS_POWER_FACTOR_L3"
	Frequency                     Field = "FREQUENCY"
	InstantaneousReactivePowerQ1  Field = "INSTANTANEOUS_REACTIVE_POWER_Q1"
	InstantaneousReactivePowerQ2  Field = "INSTANTANEOUS_REACTIVE_POWER_Q2"
	InstantaneousReactivePowerQ3  Field = "INSTANTANEOUS_REACTIVE_POWER_Q3"
	InstantaneousReactivePowerQ4  Field = "INSTANTANEOUS_REACTIVE_POWER_Q4"
)

// FailureEventBufferType identifies the power failure duration buffer of 99.97.0.
const FailureEventBufferType = "0-0:96.7.19"

var patterns = map[Field]string{
	P1MessageHeader:                      `^\d-\d:0\.2\.8\(`,
	P1MessageTimestamp:                   `^\d-\d:1\.0\.0\(`,
	ElectricityImportedTotal:             `^\d-\d:1\.8\.0\(`,
	ElectricityUsedTariff1:               `^\d-\d:1\.8\.1\(`,
	ElectricityUsedTariff2:               `^\d-\d:1\.8\.2\(`,
	ElectricityUsedTariff3:               `^\d-\d:1\.8\.3\(`,
	ElectricityUsedTariff4:               `^\d-\d:1\.8\.4\(`,
	ElectricityExportedTotal:             `^\d-\d:2\.8\.0\(`,
	ElectricityDeliveredTariff1:          `^\d-\d:2\.8\.1\(`,
	ElectricityDeliveredTariff2:          `^\d-\d:2\.8\.2\(`,
	ElectricityDeliveredTariff3:          `^\d-\d:2\.8\.3\(`,
	ElectricityDeliveredTariff4:          `^\d-\d:2\.8\.4\(`,
	CurrentReactiveImported:              `^\d-\d:3\.7\.0\(`,
	ElectricityReactiveImportedTotal:     `^\d-\d:3\.8\.0\(`,
	ElectricityReactiveImportedTariff1:   `^\d-\d:3\.8\.1\(`,
	ElectricityReactiveImportedTariff2:   `^\d-\d:3\.8\.2\(`,
	CurrentReactiveExported:              `^\d-\d:4\.7\.0\(`,
	ElectricityReactiveExportedTotal:     `^\d-\d:4\.8\.0\(`,
	ElectricityReactiveExportedTariff1:   `^\d-\d:4\.8\.1\(`,
	ElectricityReactiveExportedTariff2:   `^\d-\d:4\.8\.2\(`,
	ElectricityActiveTariff:              `^\d-\d:96\.14\.0\(`,
	EquipmentIdentifier:                  `^\d-\d:96\.1\.1\(`,
	CurrentElectricityUsage:              `^\d-\d:1\.7\.0\(`,
	CurrentElectricityDelivery:           `^\d-\d:2\.7\.0\(`,
	LongPowerFailureCount:                `^\d-\d:96\.7\.9\(`,
	ShortPowerFailureCount:               `^\d-\d:96\.7\.21\(`,
	PowerEventFailureLog:                 `^\d-\d:99\.97\.0\(`,
	VoltageSagL1Count:                    `^\d-\d:32\.32\.0\(`,
	VoltageSagL2Count:                    `^\d-\d:52\.32\.0\(`,
	VoltageSagL3Count:                    `^\d-\d:72\.32\.0\(`,
	VoltageSwellL1Count:                  `^\d-\d:32\.36\.0\(`,
	VoltageSwellL2Count:                  `^\d-\d:52\.36\.0\(`,
	VoltageSwellL3Count:                  `^\d-\d:72\.36\.0\(`,
	InstantaneousVoltageL1:               `^\d-\d:32\.7\.0\(`,
	InstantaneousVoltageL2:               `^\d-\d:52\.7\.0\(`,
	InstantaneousVoltageL3:               `^\d-\d:72\.7\.0\(`,
	InstantaneousCurrentL1:               `^\d-\d:31\.7\.0\(`,
	InstantaneousCurrentL2:               `^\d-\d:51\.7\.0\(`,
	InstantaneousCurrentL3:               `^\d-\d:71\.7\.0\(`,
	FuseThresholdL1:                      `^\d-\d:31\.4\.0\(`,
	FuseThresholdL2:                      `^\d-\d:51\.4\.0\(`,
	FuseThresholdL3:                      `^\d-\d:71\.4\.0\(`,
	TextMessageCode:                      `^\d-\d:96\.13\.1\(`,
	TextMessage:                          `^\d-\d:96\.13\.0\(`,
	DeviceType:                           `^\d-\d:24\.1\.0\(`,
	InstantaneousActivePowerL1Positive:   `^\d-\d:21\.7\.0\(`,
	InstantaneousActivePowerL2Positive:   `^\d-\d:41\.7\.0\(`,
	InstantaneousActivePowerL3Positive:   `^\d-\d:61\.7\.0\(`,
	InstantaneousActivePowerL1Negative:   `^\d-\d:22\.7\.0\(`,
	InstantaneousActivePowerL2Negative:   `^\d-\d:42\.7\.0\(`,
	InstantaneousActivePowerL3Negative:   `^\d-\d:62\.7\.0\(`,
	InstantaneousReactivePowerL1Positive: `^\d-\d:23\.7\.0\(`,
	InstantaneousReactivePowerL1Negative: `^\d-\d:24\.7\.0\(`,
	InstantaneousReactivePowerL2Positive: `^\d-\d:43\.7\.0\(`,
	InstantaneousReactivePowerL2Negative: `^\d-\d:44\.7\.0\(`,
	InstantaneousReactivePowerL3Positive: `^\d-\d:63\.7\.0\(`,
	InstantaneousReactivePowerL3Negative: `^\d-\d:64\.7\.0\(`,
	EquipmentIdentifierGas:               `^\d-\d:96\.1\.0\(`,
	HourlyGasMeterReading:                `^\d-\d:24\.2\.1\(`,
	GasMeterReading:                      `^\d-\d:24\.3\.0\(`,
	ActualTresholdElectricity:            `^\d-\d:17\.0\.0\(`,
	ActualSwitchPosition:                 `^\d-\d:96\.3\.10\(`,
	ValvePositionGas:                     `^\d-\d:24\.4\.0\(`,

	MbusDeviceType:          `^\d-[1-9]:24\.1\.0\(`,
	MbusEquipmentIdentifier: `^\d-[1-9]:96\.1\.[01]\(`,
	MbusValvePosition:       `^\d-[1-9]:24\.4\.0\(`,
	MbusMeterReading:        `^\d-[1-9]:24\.2\.[13]\(`,

	BelgiumVersionInformation:     `^\d-\d:96\.1\.4\(`,
	BelgiumEquipmentIdentifier:    `^\d-0:96\.1\.1\(`,
	BelgiumCurrentAverageDemand:   `^\d-\d:1\.4\.0\(`,
	BelgiumMaximumDemandMonth:     `^\d-\d:1\.6\.0\(`,
	BelgiumMaximumDemand13Months:  `^\d-\d:98\.1\.0\(`,
	LuxembourgEquipmentIdentifier: `^\d-\d:42\.0\.0\(`,

	Q3DEquipmentIdentifier:   `^\d-\d:0\.0\.0\(`,
	Q3DEquipmentState:        `^\d-\d:96\.5\.5\(`,
	Q3DEquipmentSerialnumber: `^\d-\d:96\.1\.255\(`,

	CosemLogicalDeviceName:        `^\d-\d:42\.0\.0\(`,
	EquipmentSerialNumber:         `^\d-\d:96\.1\.0\(`,
	ElectricityReactiveTotalQ1:    `^\d-\d:5\.8\.0\(`,
	ElectricityReactiveTotalQ2:    `^\d-\d:6\.8\.0\(`,
	ElectricityReactiveTotalQ3:    `^\d-\d:7\.8\.0\(`,
	ElectricityReactiveTotalQ4:    `^\d-\d:8\.8\.0\(`,
	ElectricityCombined:           `^\d-\d:15\.8\.0\(`,
	InstantaneousPowerFactorTotal: `^\d-\d:13\.7\.0\(`,
	InstantaneousPowerFactorL1:    `^\d-\d:33\.7\.0\(`,
	InstantaneousPowerFactorL2:    `^\d-\d:53\.7\.0\(`,
	InstantaneousPowerFactorL3:    `^\d-\d:73\.7\.0\(`,
	Frequency:                     `^\d-\d:14\.7\.0\(`,
	InstantaneousReactivePowerQ1:  `^\d-\d:5\.7\.0\(`,
	InstantaneousReactivePowerQ2:  `^\d-\d:6\.7\.0\(`,
	InstantaneousReactivePowerQ3:  `^\d-\d:7\.7\.0\(`,
	InstantaneousReactivePowerQ4:  `^\d-\d:8\.7\.0\(`,
}

// Known reports whether f has a default pattern.
func Known(f Field) bool {
	_, ok := patterns[f]
	return ok
}
