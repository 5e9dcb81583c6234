package metrics

const namespace = "ppekeeper"
