package model

// DeviceType 클라이언트 디바이스 종류
type DeviceType string

const (
	DeviceTypeWeb     DeviceType = "WEB"
	DeviceTypeAndroid DeviceType = "ANDROID"
	DeviceTypeIOS     DeviceType = "IOS"
	DeviceTypeOther   DeviceType = "OTHER"
)

// String 메서드
func (d DeviceType) String() string {
	return string(d)
}

// ParseDeviceType maps free-form input to a known device type, defaulting to OTHER.
func ParseDeviceType(s string) DeviceType {
	switch DeviceType(s) {
	case DeviceTypeWeb, DeviceTypeAndroid, DeviceTypeIOS:
		return DeviceType(s)
	default:
		return DeviceTypeOther
	}
}
