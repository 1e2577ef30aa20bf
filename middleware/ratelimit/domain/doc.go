// Package domain define contratos e tipos de domínio do guarda de requisições:
// identidade do cliente, política (limite + janela), contador de janela,
// registro de bloqueios e estatísticas.
//
// Este pacote não depende de net/http nem de implementações concretas.
// A intenção é permitir testes de unidade puros e desacoplar regras de negócio
// de detalhes de infraestrutura.
package domain
