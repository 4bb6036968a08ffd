package configs

// HTTP defines configuration for the trigger HTTP server. The Port
// specifies which port the server will bind to. The server only runs
// under the serve command; batch runs never bind a port.
type HTTP struct {
	// Port is the TCP port the HTTP server will listen on. Defaults to 8080.
	Port uint16 `yaml:"port" env:"PORT" envDefault:"8080"`
}
