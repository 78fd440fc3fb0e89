package procmeasure

// Linux reports ru_maxrss in kilobytes.
const maxRSSUnit = 1024
