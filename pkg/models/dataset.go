package models

// Dataset is a registered dataset. JSON names follow the wire format of the
// catalogue API.
type Dataset struct {
	ID                  string `json:"dataset"`
	Owner               string `json:"reg_user"`
	MetadataServiceHost string `json:"ms_host"`
	Volume              string `json:"volume"`
	Gateway             string `json:"gateway"`
	GatewayUsername     string `json:"username"`
	GatewayPrivateKey   string `json:"user_pkey"`
	Description         string `json:"description"`
}
