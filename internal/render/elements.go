package render

// Element ids of the drone dashboard.
const (
	ConnectionValue    = "connection-status-value"
	ConnectionStatus   = "connection-status"
	ConnectionBar      = "connection-bar"
	ConnectionDot      = "drone-connection-dot"
	DroneStatus        = "drone-status"
	SignalValue        = "signal-value"
	SignalStatus       = "signal-status"
	SignalBar          = "signal-bar"
	BatteryValue       = "battery-value"
	BatteryStatus      = "battery-status"
	BatteryBar         = "battery-bar"
	FlightTime         = "flight-time"
	FlightBar          = "flight-bar"
	AreaCovered        = "area-covered"
	AreaBar            = "area-bar"
	AvgNDVI            = "avg-ndvi"
	NDVIBar            = "ndvi-bar"
	HealthScore        = "health-score"
	HealthBar          = "health-bar"
	MissionStatus      = "mission-status"
	MissionBar         = "mission-bar"
	MissionProgress    = "mission-progress-text"
	MissionProgressBar = "mission-progress-bar"
	DroneAltitude      = "drone-altitude"
	ZoomLevel          = "zoom-level"
	MapCoordinates     = "map-coordinates"
	FieldName          = "field-name"
	FlightMode         = "flight-mode"
	SidebarBattery     = "sidebar-battery-value"
	SidebarBatteryDot  = "battery-status-dot"
	SidebarSignal      = "sidebar-signal-value"
	SidebarSignalDot   = "signal-status-dot"
	SystemStatusText   = "system-status-text"
	SystemStatusDot    = "system-status-dot"
	LastUpdate         = "last-update-time"
)

// Element ids of the soil dashboard.
const (
	SoilNode          = "soil-node"
	SoilPHValue       = "soil-ph-value"
	SoilPHStatus      = "soil-ph-status"
	SoilPHBar         = "soil-ph-bar"
	SoilTempValue     = "soil-temperature-value"
	SoilTempStatus    = "soil-temperature-status"
	SoilTempBar       = "soil-temperature-bar"
	SoilECValue       = "soil-ec-value"
	SoilECStatus      = "soil-ec-status"
	SoilHumidityValue = "soil-humidity-value"
	SoilHumidityStat  = "soil-humidity-status"
	SoilMoistureValue = "soil-moisture-value"
	SoilMoistureStat  = "soil-moisture-status"
	SoilMoistureBar   = "soil-moisture-bar"
	SoilNitrogenValue = "soil-nitrogen-value"
	SoilNitrogenStat  = "soil-nitrogen-status"
	SoilTimeRange     = "time-range"
	SoilLastUpdate    = "soil-last-update"
)

var elements = func() map[string]struct{} {
	ids := []string{
		ConnectionValue, ConnectionStatus, ConnectionBar, ConnectionDot, DroneStatus,
		SignalValue, SignalStatus, SignalBar, BatteryValue, BatteryStatus, BatteryBar,
		FlightTime, FlightBar, AreaCovered, AreaBar, AvgNDVI, NDVIBar, HealthScore, HealthBar,
		MissionStatus, MissionBar, MissionProgress, MissionProgressBar, DroneAltitude,
		ZoomLevel, MapCoordinates, FieldName, FlightMode,
		SidebarBattery, SidebarBatteryDot, SidebarSignal, SidebarSignalDot,
		SystemStatusText, SystemStatusDot, LastUpdate,
		SoilNode, SoilPHValue, SoilPHStatus, SoilPHBar, SoilTempValue, SoilTempStatus, SoilTempBar,
		SoilECValue, SoilECStatus, SoilHumidityValue, SoilHumidityStat,
		SoilMoistureValue, SoilMoistureStat, SoilMoistureBar, SoilNitrogenValue, SoilNitrogenStat,
		SoilTimeRange, SoilLastUpdate,
	}
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}()

// Known reports whether id names a dashboard element.
func Known(id string) bool {
	_, ok := elements[id]
	return ok
}
