package factory

// =============================================================================
// DEMO CATALOG - The static program list used before a back end exists
// =============================================================================

// DemoCatalogJSON is the demo catalog in the catalog JSON contract.
// derecho-virtual advertises tuition only (12 x 1800.00) and leaves the
// matrícula out of costoTotal, so its plan does not reconcile.
const DemoCatalogJSON = `[
  {
    "id": "ing-sistemas",
    "nombre": "Ingeniería de Sistemas",
    "modalidad": "Presencial",
    "duracion": 4,
    "costoPorSemestre": 3000.00,
    "costoTotal": 14600.00,
    "conceptosAdicionales": [
      {"concepto": "Matrícula", "monto": 300.00},
      {"concepto": "Biblioteca", "monto": 200.00},
      {"concepto": "Laboratorio", "monto": 150.00}
    ]
  },
  {
    "id": "administracion",
    "nombre": "Administración de Empresas",
    "modalidad": "Semipresencial",
    "duracion": 10,
    "costoPorSemestre": 2200.00,
    "costoTotal": 25000.00,
    "conceptosAdicionales": [
      {"concepto": "Matrícula", "monto": 250.00},
      {"concepto": "Seguro estudiantil", "monto": 50.00}
    ]
  },
  {
    "id": "derecho-virtual",
    "nombre": "Derecho",
    "modalidad": "Virtual",
    "duracion": 12,
    "costoPorSemestre": 1800.00,
    "costoTotal": 21600.00,
    "conceptosAdicionales": [
      {"concepto": "Matrícula", "monto": 200.00}
    ]
  },
  {
    "id": "diplomado-datos",
    "nombre": "Diplomado en Ciencia de Datos",
    "modalidad": "Virtual",
    "duracion": 1,
    "costoPorSemestre": 2500.00,
    "costoTotal": 2500.00,
    "conceptosAdicionales": []
  }
]`

// DemoCatalogIDs lists the program ids in DemoCatalogJSON, in order.
var DemoCatalogIDs = []string{"ing-sistemas", "administracion", "derecho-virtual", "diplomado-datos"}
