package enroll

// Version is overridden at build time with -ldflags "-X github.com/aretw0/enroll.Version=...".
var Version = "dev"
