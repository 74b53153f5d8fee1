// Package specifications holds the telegram layouts of the supported meters.
package specifications

import (
	"github.com/NotCoffee418/dsmr_telegram/pkg/obis"
	"github.com/NotCoffee418/dsmr_telegram/pkg/objects"
	"github.com/NotCoffee418/dsmr_telegram/pkg/parser"
	"github.com/NotCoffee418/dsmr_telegram/pkg/valuetype"
)

var (
	str       = parser.NewCosemParser(valuetype.String)
	integer   = parser.NewCosemParser(valuetype.Int)
	dec       = parser.NewCosemParser(valuetype.Decimal)
	timestamp = parser.NewCosemParser(valuetype.Timestamp)

	mbusReading = parser.NewMBusParser(objects.LayoutTimestamped, valuetype.Timestamp, valuetype.Decimal)

	// (timestamp)(status)(period)(count)(obis)(unit)(value) on two lines.
	gasReadingV2_2 = parser.NewMBusParser(objects.LayoutV2_2,
		valuetype.Timestamp,
		valuetype.Int,
		valuetype.Int,
		valuetype.Int,
		valuetype.String,
		valuetype.String,
		valuetype.Decimal,
	)

	powerFailureLog = parser.NewProfileGenericParser(
		map[string][]valuetype.Format{
			obis.FailureEventBufferType: {valuetype.Timestamp, valuetype.Int},
		},
		[]valuetype.Format{valuetype.Timestamp, valuetype.Decimal},
	)
)

func entry(field obis.Field, p parser.LineParser) parser.Entry {
	return parser.NewEntry(field, p)
}

var V2_2 = parser.Specification{
	Name:            "V2_2",
	ChecksumSupport: false,
	Entries: []parser.Entry{
		entry(obis.EquipmentIdentifier, str),
		entry(obis.ElectricityUsedTariff1, dec),
		entry(obis.ElectricityUsedTariff2, dec),
		entry(obis.ElectricityDeliveredTariff1, dec),
		entry(obis.ElectricityDeliveredTariff2, dec),
		entry(obis.ElectricityActiveTariff, str),
		entry(obis.CurrentElectricityUsage, dec),
		entry(obis.CurrentElectricityDelivery, dec),
		entry(obis.ActualTresholdElectricity, dec),
		entry(obis.ActualSwitchPosition, str),
		entry(obis.TextMessageCode, integer),
		entry(obis.TextMessage, str),
		entry(obis.EquipmentIdentifierGas, str),
		entry(obis.DeviceType, str),
		entry(obis.ValvePositionGas, str),
		entry(obis.GasMeterReading, gasReadingV2_2),
	},
}

// V3 telegrams share the DSMR 2.2 layout.
var V3 = V2_2.With("V3")

var V4 = parser.Specification{
	Name:            "V4",
	ChecksumSupport: true,
	Entries: []parser.Entry{
		entry(obis.P1MessageHeader, str),
		entry(obis.P1MessageTimestamp, timestamp),
		entry(obis.ElectricityUsedTariff1, dec),
		entry(obis.ElectricityUsedTariff2, dec),
		entry(obis.ElectricityDeliveredTariff1, dec),
		entry(obis.ElectricityDeliveredTariff2, dec),
		entry(obis.ElectricityActiveTariff, str),
		entry(obis.EquipmentIdentifier, str),
		entry(obis.CurrentElectricityUsage, dec),
		entry(obis.CurrentElectricityDelivery, dec),
		entry(obis.ShortPowerFailureCount, integer),
		entry(obis.LongPowerFailureCount, integer),
		entry(obis.PowerEventFailureLog, powerFailureLog),
		entry(obis.VoltageSagL1Count, integer),
		entry(obis.VoltageSagL2Count, integer),
		entry(obis.VoltageSagL3Count, integer),
		entry(obis.VoltageSwellL1Count, integer),
		entry(obis.VoltageSwellL2Count, integer),
		entry(obis.VoltageSwellL3Count, integer),
		entry(obis.TextMessageCode, integer),
		entry(obis.TextMessage, str),
		entry(obis.DeviceType, integer),
		entry(obis.InstantaneousCurrentL1, dec),
		entry(obis.InstantaneousCurrentL2, dec),
		entry(obis.InstantaneousCurrentL3, dec),
		entry(obis.InstantaneousActivePowerL1Positive, dec),
		entry(obis.InstantaneousActivePowerL2Positive, dec),
		entry(obis.InstantaneousActivePowerL3Positive, dec),
		entry(obis.InstantaneousActivePowerL1Negative, dec),
		entry(obis.InstantaneousActivePowerL2Negative, dec),
		entry(obis.InstantaneousActivePowerL3Negative, dec),
		entry(obis.EquipmentIdentifierGas, str),
		entry(obis.HourlyGasMeterReading, mbusReading),
	},
}

// V5 groups every sub-meter line under the MBUS_* fields, whatever the
// device type on the channel.
var V5 = parser.Specification{
	Name:            "V5",
	ChecksumSupport: true,
	Entries: []parser.Entry{
		entry(obis.MbusDeviceType, integer),
		entry(obis.MbusEquipmentIdentifier, str),
		entry(obis.MbusValvePosition, integer),
		entry(obis.MbusMeterReading, mbusReading),
		entry(obis.P1MessageHeader, str),
		entry(obis.P1MessageTimestamp, timestamp),
		entry(obis.EquipmentIdentifier, str),
		entry(obis.ElectricityImportedTotal, dec),
		entry(obis.ElectricityUsedTariff1, dec),
		entry(obis.ElectricityUsedTariff2, dec),
		entry(obis.ElectricityExportedTotal, dec),
		entry(obis.ElectricityDeliveredTariff1, dec),
		entry(obis.ElectricityDeliveredTariff2, dec),
		entry(obis.ElectricityActiveTariff, str),
		entry(obis.CurrentElectricityUsage, dec),
		entry(obis.CurrentElectricityDelivery, dec),
		entry(obis.LongPowerFailureCount, integer),
		entry(obis.ShortPowerFailureCount, integer),
		entry(obis.PowerEventFailureLog, powerFailureLog),
		entry(obis.VoltageSagL1Count, integer),
		entry(obis.VoltageSagL2Count, integer),
		entry(obis.VoltageSagL3Count, integer),
		entry(obis.VoltageSwellL1Count, integer),
		entry(obis.VoltageSwellL2Count, integer),
		entry(obis.VoltageSwellL3Count, integer),
		entry(obis.InstantaneousVoltageL1, dec),
		entry(obis.InstantaneousVoltageL2, dec),
		entry(obis.InstantaneousVoltageL3, dec),
		entry(obis.InstantaneousCurrentL1, dec),
		entry(obis.InstantaneousCurrentL2, dec),
		entry(obis.InstantaneousCurrentL3, dec),
		entry(obis.TextMessage, str),
		entry(obis.InstantaneousActivePowerL1Positive, dec),
		entry(obis.InstantaneousActivePowerL2Positive, dec),
		entry(obis.InstantaneousActivePowerL3Positive, dec),
		entry(obis.InstantaneousActivePowerL1Negative, dec),
		entry(obis.InstantaneousActivePowerL2Negative, dec),
		entry(obis.InstantaneousActivePowerL3Negative, dec),
	},
}

var BelgiumFluvius = parser.Specification{
	Name:            "BELGIUM_FLUVIUS",
	ChecksumSupport: true,
	Entries: []parser.Entry{
		entry(obis.BelgiumVersionInformation, str),
		entry(obis.BelgiumEquipmentIdentifier, str),
		entry(obis.P1MessageTimestamp, timestamp),
		entry(obis.ElectricityUsedTariff1, dec),
		entry(obis.ElectricityUsedTariff2, dec),
		entry(obis.ElectricityDeliveredTariff1, dec),
		entry(obis.ElectricityDeliveredTariff2, dec),
		entry(obis.ElectricityActiveTariff, str),
		entry(obis.BelgiumCurrentAverageDemand, dec),
		entry(obis.BelgiumMaximumDemandMonth, mbusReading),
		entry(obis.BelgiumMaximumDemand13Months, parser.NewMaxDemandParser(valuetype.Timestamp)),
		entry(obis.CurrentElectricityUsage, dec),
		entry(obis.CurrentElectricityDelivery, dec),
		entry(obis.InstantaneousActivePowerL1Positive, dec),
		entry(obis.InstantaneousActivePowerL2Positive, dec),
		entry(obis.InstantaneousActivePowerL3Positive, dec),
		entry(obis.InstantaneousActivePowerL1Negative, dec),
		entry(obis.InstantaneousActivePowerL2Negative, dec),
		entry(obis.InstantaneousActivePowerL3Negative, dec),
		entry(obis.InstantaneousVoltageL1, dec),
		entry(obis.InstantaneousVoltageL2, dec),
		entry(obis.InstantaneousVoltageL3, dec),
		entry(obis.InstantaneousCurrentL1, dec),
		entry(obis.InstantaneousCurrentL2, dec),
		entry(obis.InstantaneousCurrentL3, dec),
		entry(obis.ActualSwitchPosition, integer),
		entry(obis.ActualTresholdElectricity, dec),
		entry(obis.FuseThresholdL1, dec),
		entry(obis.TextMessage, str),
		entry(obis.MbusDeviceType, integer),
		entry(obis.MbusEquipmentIdentifier, str),
		entry(obis.MbusValvePosition, integer),
		entry(obis.MbusMeterReading, mbusReading),
	},
}

var LuxembourgSmarty = V5.Without("LUXEMBOURG_SMARTY", obis.EquipmentIdentifier).With("LUXEMBOURG_SMARTY",
	entry(obis.LuxembourgEquipmentIdentifier, str),
	entry(obis.ElectricityReactiveImportedTotal, dec),
	entry(obis.ElectricityReactiveExportedTotal, dec),
	entry(obis.CurrentReactiveImported, dec),
	entry(obis.CurrentReactiveExported, dec),
	entry(obis.ActualSwitchPosition, integer),
	entry(obis.ActualTresholdElectricity, dec),
)

var Sweden = parser.Specification{
	Name:            "SWEDEN",
	ChecksumSupport: true,
	Entries: []parser.Entry{
		entry(obis.P1MessageHeader, str),
		entry(obis.P1MessageTimestamp, timestamp),
		entry(obis.ElectricityImportedTotal, dec),
		entry(obis.ElectricityExportedTotal, dec),
		entry(obis.ElectricityReactiveImportedTotal, dec),
		entry(obis.ElectricityReactiveExportedTotal, dec),
		entry(obis.CurrentElectricityUsage, dec),
		entry(obis.CurrentElectricityDelivery, dec),
		entry(obis.CurrentReactiveImported, dec),
		entry(obis.CurrentReactiveExported, dec),
		entry(obis.InstantaneousActivePowerL1Positive, dec),
		entry(obis.InstantaneousActivePowerL1Negative, dec),
		entry(obis.InstantaneousActivePowerL2Positive, dec),
		entry(obis.InstantaneousActivePowerL2Negative, dec),
		entry(obis.InstantaneousActivePowerL3Positive, dec),
		entry(obis.InstantaneousActivePowerL3Negative, dec),
		entry(obis.InstantaneousReactivePowerL1Positive, dec),
		entry(obis.InstantaneousReactivePowerL1Negative, dec),
		entry(obis.InstantaneousReactivePowerL2Positive, dec),
		entry(obis.InstantaneousReactivePowerL2Negative, dec),
		entry(obis.InstantaneousReactivePowerL3Positive, dec),
		entry(obis.InstantaneousReactivePowerL3Negative, dec),
		entry(obis.InstantaneousVoltageL1, dec),
		entry(obis.InstantaneousVoltageL2, dec),
		entry(obis.InstantaneousVoltageL3, dec),
		entry(obis.InstantaneousCurrentL1, dec),
		entry(obis.InstantaneousCurrentL2, dec),
		entry(obis.InstantaneousCurrentL3, dec),
	},
}

var Q3D = parser.Specification{
	Name:            "Q3D",
	ChecksumSupport: false,
	Entries: []parser.Entry{
		entry(obis.Q3DEquipmentIdentifier, str),
		entry(obis.ElectricityImportedTotal, dec),
		entry(obis.ElectricityExportedTotal, dec),
		entry(obis.CurrentElectricityUsage, dec),
		entry(obis.InstantaneousActivePowerL1Positive, dec),
		entry(obis.InstantaneousActivePowerL2Positive, dec),
		entry(obis.InstantaneousActivePowerL3Positive, dec),
		entry(obis.Q3DEquipmentState, str),
		entry(obis.Q3DEquipmentSerialnumber, str),
	},
}

// SagemcomT210DR is the Austrian variant. Its telegrams arrive wrapped in a
// general global cipher envelope.
var SagemcomT210DR = parser.Specification{
	Name:                "SAGEMCOM_T210_D_R",
	ChecksumSupport:     true,
	GeneralGlobalCipher: true,
	Entries: []parser.Entry{
		entry(obis.P1MessageHeader, str),
		entry(obis.P1MessageTimestamp, timestamp),
		entry(obis.ElectricityUsedTariff1, dec),
		entry(obis.ElectricityUsedTariff2, dec),
		entry(obis.ElectricityDeliveredTariff1, dec),
		entry(obis.ElectricityDeliveredTariff2, dec),
		entry(obis.ElectricityReactiveImportedTariff1, dec),
		entry(obis.ElectricityReactiveImportedTariff2, dec),
		entry(obis.ElectricityReactiveExportedTariff1, dec),
		entry(obis.ElectricityReactiveExportedTariff2, dec),
		entry(obis.CurrentElectricityUsage, dec),
		entry(obis.CurrentElectricityDelivery, dec),
		entry(obis.CurrentReactiveImported, dec),
		entry(obis.CurrentReactiveExported, dec),
		entry(obis.InstantaneousActivePowerL1Positive, dec),
		entry(obis.InstantaneousActivePowerL2Positive, dec),
		entry(obis.InstantaneousActivePowerL3Positive, dec),
		entry(obis.InstantaneousActivePowerL1Negative, dec),
		entry(obis.InstantaneousActivePowerL2Negative, dec),
		entry(obis.InstantaneousActivePowerL3Negative, dec),
		entry(obis.InstantaneousVoltageL1, dec),
		entry(obis.InstantaneousVoltageL2, dec),
		entry(obis.InstantaneousVoltageL3, dec),
		entry(obis.InstantaneousCurrentL1, dec),
		entry(obis.InstantaneousCurrentL2, dec),
		entry(obis.InstantaneousCurrentL3, dec),
		entry(obis.TextMessage, str),
	},
}

var budapestTimestamp = mustTimestampFormat("Europe/Budapest")

func mustTimestampFormat(zone string) valuetype.Format {
	f, err := valuetype.LoadTimestampFormat(zone)
	if err != nil {
		panic(err)
	}
	return f
}

var EONHungary = parser.Specification{
	Name:            "EON_HUNGARY",
	ChecksumSupport: true,
	Entries: []parser.Entry{
		entry(obis.P1MessageTimestamp, parser.NewCosemParser(budapestTimestamp)),
		entry(obis.CosemLogicalDeviceName, str),
		entry(obis.EquipmentSerialNumber, str),
		entry(obis.ElectricityActiveTariff, str),
		entry(obis.ActualSwitchPosition, str),
		entry(obis.ActualTresholdElectricity, dec),
		entry(obis.ElectricityImportedTotal, dec),
		entry(obis.ElectricityUsedTariff1, dec),
		entry(obis.ElectricityUsedTariff2, dec),
		entry(obis.ElectricityUsedTariff3, dec),
		entry(obis.ElectricityUsedTariff4, dec),
		entry(obis.ElectricityExportedTotal, dec),
		entry(obis.ElectricityDeliveredTariff1, dec),
		entry(obis.ElectricityDeliveredTariff2, dec),
		entry(obis.ElectricityDeliveredTariff3, dec),
		entry(obis.ElectricityDeliveredTariff4, dec),
		entry(obis.ElectricityReactiveImportedTotal, dec),
		entry(obis.ElectricityReactiveExportedTotal, dec),
		entry(obis.ElectricityReactiveTotalQ1, dec),
		entry(obis.ElectricityReactiveTotalQ2, dec),
		entry(obis.ElectricityReactiveTotalQ3, dec),
		entry(obis.ElectricityReactiveTotalQ4, dec),
		entry(obis.ElectricityCombined, dec),
		entry(obis.InstantaneousVoltageL1, dec),
		entry(obis.InstantaneousVoltageL2, dec),
		entry(obis.InstantaneousVoltageL3, dec),
		entry(obis.InstantaneousCurrentL1, dec),
		entry(obis.InstantaneousCurrentL2, dec),
		entry(obis.InstantaneousCurrentL3, dec),
		entry(obis.InstantaneousPowerFactorTotal, dec),
		entry(obis.InstantaneousPowerFactorL1, dec),
		entry(obis.InstantaneousPowerFactorL2, dec),
		entry(obis.InstantaneousPowerFactorL3, dec),
		entry(obis.Frequency, dec),
		entry(obis.CurrentElectricityUsage, dec),
		entry(obis.CurrentElectricityDelivery, dec),
		entry(obis.InstantaneousReactivePowerQ1, dec),
		entry(obis.InstantaneousReactivePowerQ2, dec),
		entry(obis.InstantaneousReactivePowerQ3, dec),
		entry(obis.InstantaneousReactivePowerQ4, dec),
		entry(obis.FuseThresholdL1, dec),
		entry(obis.FuseThresholdL2, dec),
		entry(obis.FuseThresholdL3, dec),
		entry(obis.TextMessage, str),
	},
}

var IskraIE = parser.Specification{
	Name:            "ISKRA_IE",
	ChecksumSupport: true,
	Entries: []parser.Entry{
		entry(obis.P1MessageHeader, str),
		entry(obis.P1MessageTimestamp, timestamp),
		entry(obis.EquipmentIdentifierGas, str),
		entry(obis.ElectricityUsedTariff1, dec),
		entry(obis.ElectricityUsedTariff2, dec),
		entry(obis.ElectricityDeliveredTariff1, dec),
		entry(obis.ElectricityDeliveredTariff2, dec),
		entry(obis.ElectricityActiveTariff, str),
		entry(obis.CurrentElectricityUsage, dec),
		entry(obis.CurrentElectricityDelivery, dec),
		entry(obis.InstantaneousActivePowerL1Positive, dec),
		entry(obis.InstantaneousActivePowerL2Positive, dec),
		entry(obis.InstantaneousActivePowerL3Positive, dec),
		entry(obis.InstantaneousActivePowerL1Negative, dec),
		entry(obis.InstantaneousActivePowerL2Negative, dec),
		entry(obis.InstantaneousActivePowerL3Negative, dec),
		entry(obis.InstantaneousVoltageL1, dec),
		entry(obis.InstantaneousVoltageL2, dec),
		entry(obis.InstantaneousVoltageL3, dec),
		entry(obis.InstantaneousCurrentL1, dec),
		entry(obis.InstantaneousCurrentL2, dec),
		entry(obis.InstantaneousCurrentL3, dec),
		entry(obis.ActualSwitchPosition, str),
		entry(obis.TextMessage, str),
		entry(obis.EquipmentIdentifier, str),
	},
}
